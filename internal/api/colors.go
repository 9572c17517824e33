package api

// DefaultLineColor is used for lines missing from lineColors
const DefaultLineColor = "black"

// lineColors maps a line label to its marker colour
var lineColors = map[string]string{
	"Red line":          "red",
	"Blue line":         "blue",
	"Yellow line":       "beige",
	"Green line":        "green",
	"Voilet line":       "purple",
	"Pink line":         "pink",
	"Magenta line":      "darkred",
	"Orange line":       "orange",
	"Rapid Metro":       "cadetblue",
	"Aqua line":         "black",
	"Green line branch": "lightgreen",
	"Blue line branch":  "lightblue",
	"Gray line":         "lightgray",
}

// LineColor returns the marker colour of a line
func LineColor(line string) string {
	if color, ok := lineColors[line]; ok {
		return color
	}
	return DefaultLineColor
}
