package domain

// FieldKind is the declared type of a metadata field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindTime
	KindFloat
)

// FieldSpec names one fixed leading field of a data line.
type FieldSpec struct {
	Name string
	Kind FieldKind
}

const (
	// MetadataFieldCount is the number of fixed tokens before the pixel stream.
	MetadataFieldCount = 24
	numericFieldCount  = MetadataFieldCount - 2

	ColumnRoutineCode = "Routine Code"
	ColumnTimestamp   = "Timestamp"
)

// MetadataFields is the column contract with the instrument format, in
// token order.
var MetadataFields = [MetadataFieldCount]FieldSpec{
	{ColumnRoutineCode, KindString},
	{ColumnTimestamp, KindTime},
	{"Routine Count", KindFloat},
	{"Repetition Count", KindFloat},
	{"Duration", KindFloat},
	{"Integration Time [ms]", KindFloat},
	{"Number of Cycles", KindFloat},
	{"Saturation Index", KindFloat},
	{"Filterwheel 1", KindFloat},
	{"Filterwheel 2", KindFloat},
	{"Zenith Angle [deg]", KindFloat},
	{"Zenith Mode", KindFloat},
	{"Azimuth Angle [deg]", KindFloat},
	{"Azimuth Mode", KindFloat},
	{"Processing Index", KindFloat},
	{"Target Distance [m]", KindFloat},
	{"Electronics Temp [°C]", KindFloat},
	{"Control Temp [°C]", KindFloat},
	{"Aux Temp [°C]", KindFloat},
	{"Head Sensor Temp [°C]", KindFloat},
	{"Head Sensor Humidity [%]", KindFloat},
	{"Head Sensor Pressure [hPa]", KindFloat},
	{"Scale Factor", KindFloat},
	{"Uncertainty Indicator", KindFloat},
}

// metadataIndex maps column names to their position in MetadataFields.
var metadataIndex = func() map[string]int {
	m := make(map[string]int, MetadataFieldCount)
	for i, f := range MetadataFields {
		m[f.Name] = i
	}
	return m
}()

// Fields is a data line split into metadata and pixel tokens.
type Fields struct {
	Metadata [MetadataFieldCount]string
	Pixels   []string
}

// Leftover is the number of trailing pixels that do not fill a whole band.
func (f Fields) Leftover(width int) int {
	if width <= 0 {
		return len(f.Pixels)
	}
	return len(f.Pixels) % width
}

// MapFields splits tokens into the fixed metadata prefix and the pixel
// stream. Fewer than MetadataFieldCount tokens returns a *SchemaError.
func MapFields(tokens []string) (Fields, error) {
	if len(tokens) < MetadataFieldCount {
		return Fields{}, &SchemaError{Got: len(tokens), Want: MetadataFieldCount}
	}
	var f Fields
	copy(f.Metadata[:], tokens[:MetadataFieldCount])
	f.Pixels = tokens[MetadataFieldCount:]
	return f, nil
}
