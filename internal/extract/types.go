package extract

// Table is a grid of cell texts recovered from one page. Number is 1-based
// within the page; HTML is the rendering of Rows with the first row as
// header, reversible through ParseTableHTML.
type Table struct {
	Number int
	Rows   [][]string
	HTML   string
}

// Image is an embedded picture kept after the significance filter. Width and
// Height are display points, zero when the codec could not be decoded.
// OCRText holds whatever tesseract read out of the picture, possibly empty.
type Image struct {
	Number  int
	Data    []byte
	Format  string
	Width   float64
	Height  float64
	OCRText string
}

// Page is everything pulled from a single PDF page.
type Page struct {
	Number int
	Width  float64
	Height float64
	Text   string
	Tables []Table
	Images []Image
}

// Result is the full parse of one document.
type Result struct {
	PageCount int
	Pages     []Page
}
