package bmp

// A ReadError reports that the source ended before a section was complete.
type ReadError struct {
	Section string
	Err     error
}

func (e *ReadError) Error() string { return "bmp: cannot read " + e.Section + ": " + e.Err.Error() }

func (e *ReadError) Unwrap() error { return e.Err }

// A WriteError reports that the sink rejected part of the file.
type WriteError struct {
	Section string
	Err     error
}

func (e *WriteError) Error() string { return "bmp: cannot write " + e.Section + ": " + e.Err.Error() }

func (e *WriteError) Unwrap() error { return e.Err }

// A FormatError reports that the input is not a BMP file.
type FormatError string

func (e FormatError) Error() string { return "bmp: invalid format: " + string(e) }

// An UnsupportedError reports that the input is a BMP file using a feature
// this package does not read: top-down rows, other depths, compression.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "bmp: unsupported feature: " + string(e) }
