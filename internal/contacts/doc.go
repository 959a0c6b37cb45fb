// Package contacts reads the contact sheet (xlsx or csv) into ordered rows.
//
// Required columns are Name, Phone and Message; "Date of Birth" is optional and
// only consulted by the date filter. Cell values are normalized here, so phone
// numbers leave this package as plain strings without spreadsheet artifacts.
package contacts
