// Package backoffice implements the purchase side of a shop back office: a
// purchase draft edited locally, item by item, then submitted as a whole to
// the back office server.
//
// The main parts are:
//   - Reference tables: currencies with their exchange rates, departments,
//     units, vendors and cash drawers, loaded once from the server.
//   - Draft: the purchase being prepared (vendor, currency, notes, payment
//     method and items). It is safe for concurrent use and refuses changes
//     while a submission is in flight.
//   - Form: the item form, to add or edit an item either from a catalog
//     product or as a new product, with barcode uniqueness checks.
//   - Submission: the multipart encoding of a draft, as expected by the
//     purchase creation endpoint.
//
// Network access goes through small interfaces (PurchasePoster,
// BarcodeService) implemented by the api package.
package backoffice
