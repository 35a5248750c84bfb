// Package leadsource turns third-party place and completion payloads into
// unsaved TeamFund leads.
//
// Payloads are read with gjson because the providers return loosely typed
// records: fields go missing, change type, or arrive under alias keys.
// Normalizers never fail; records that cannot produce a lead are skipped.
package leadsource
