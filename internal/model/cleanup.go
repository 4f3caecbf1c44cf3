package model

// CleanupSummary counts the rows each cleanup stage changed.
type CleanupSummary struct {
	NamesSplit       int `json:"names_split" yaml:"names_split"`
	CapsFixed        int `json:"caps_fixed" yaml:"caps_fixed"`
	PhonesFormatted  int `json:"phones_formatted" yaml:"phones_formatted"`
	EmailsClassified int `json:"emails_classified" yaml:"emails_classified"`
	DuplicatesFound  int `json:"duplicates_found" yaml:"duplicates_found"`
	MissingFlagged   int `json:"missing_flagged" yaml:"missing_flagged"`
}

// Total returns the sum of all stage counters.
func (s CleanupSummary) Total() int {
	return s.NamesSplit + s.CapsFixed + s.PhonesFormatted + s.EmailsClassified + s.DuplicatesFound + s.MissingFlagged
}
