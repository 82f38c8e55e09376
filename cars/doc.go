// Package cars manages a car inventory on top of recordstore.
//
// Each car is stored under its URL encoded number plate in the "carcache"
// store, and the list of plates in insertion order is kept under the
// "carnumbers" key of the "carlist" store. Adding and removing a car change
// both stores in one transaction.
//
// Search takes AIP-160 filter expressions over the car fields:
//
//	mgr.Search(ctx, `brand = "skoda" AND displacement >= 1.2`)
//	mgr.Search(ctx, `color = "red" OR country = "italy"`)
//
// Numeric literals compared with displacement must be written with a
// decimal point.
package cars
