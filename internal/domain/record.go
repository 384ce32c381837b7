package domain

// Record is a single title lookup as returned by the metadata provider.
// List fields (Genre, Language, Country, Director, Writer, Actors) are
// comma separated free text.
type Record struct {
	Title        string         `json:"Title"`
	Year         string         `json:"Year"`
	Rated        string         `json:"Rated"`
	Released     string         `json:"Released"`
	Runtime      string         `json:"Runtime"`
	Genre        string         `json:"Genre"`
	Director     string         `json:"Director"`
	Writer       string         `json:"Writer"`
	Actors       string         `json:"Actors"`
	Plot         string         `json:"Plot"`
	Language     string         `json:"Language"`
	Country      string         `json:"Country"`
	Awards       string         `json:"Awards"`
	Poster       string         `json:"Poster"`
	Ratings      []RecordRating `json:"Ratings"`
	Metascore    string         `json:"Metascore"`
	IMDBRating   string         `json:"imdbRating"`
	IMDBVotes    string         `json:"imdbVotes"`
	IMDBID       string         `json:"imdbID"`
	Type         string         `json:"Type"`
	TotalSeasons string         `json:"totalSeasons"`
	BoxOffice    string         `json:"BoxOffice"`
	Production   string         `json:"Production"`
	Website      string         `json:"Website"`
}

type RecordRating struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}
