// Package domain models Pandonia Global Network (PGN) L0 instrument logs.
//
// # Data Source
//
// L0 files are published per instrument in the PGN archive at
// https://data.ovh.pandonia-global-network.org/ under
// "<location>/<device>/L0/". Files are plain text, usually bzip2-compressed
// (".txt.bz2"). Each file is one day of raw spectrometer output.
//
// # File Layout
//
//	<header: instrument, location, software metadata>
//	---------------------------------------------------------------------------------------
//	<column legend: "Column 1: Two letter code of measurement routine", ...>
//	---------------------------------------------------------------------------------------
//	<data lines>
//
// The marker is a run of dashes. [FindDataStart] locates the configured
// occurrence (the first by default) and the data body begins on the next
// line. Lines starting with "#" are comments and may appear anywhere in the
// body.
//
// # Data Lines
//
// Whitespace-separated. The first 24 tokens are fixed metadata, in the
// order given by [MetadataFields]:
//
//	SO 20210101T000012.3Z 1 1 5.0 100 1 0 1 1 45.0 0 90.0 0 1 10.0 20.1 ...
//	^  ^                  ^
//	|  timestamp (UTC)    routine count, repetition count, duration, ...
//	routine code
//
// Every token after the 24th is a raw pixel count. A full-resolution
// spectrometer emits 2048 pixels per line.
//
// # Pixel Bands
//
// Individual pixels are too noisy to plot over time, so the pixel stream is
// cut into consecutive bands of [DefaultBandWidth] (200) and each band is
// reduced to its mean. Band i covers pixels 1+i*200 .. (i+1)*200 and is
// labelled "Pixel 1-200", "Pixel 201-400", and so on. A trailing group
// shorter than the band width is dropped, never padded.
//
// # Missing Values
//
// Metadata tokens that fail to parse become missing ([NullFloat] or
// [NullTime] with Valid=false), never zero. A band whose tokens all fail to
// parse is missing. Unparseable tokens inside an otherwise valid band are
// left out of its mean.
//
// # Failure Taxonomy
//
//	DecodeError       corrupt compressed input, load fails
//	SchemaError       fewer than 24 tokens, record dropped
//	field coercion    unparseable token, field missing, record kept
//	EmptyResultError  no record survived, load fails
package domain
