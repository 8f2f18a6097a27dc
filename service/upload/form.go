package upload

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTextLength applies to the location name and the description
	MaxTextLength = 140

	// parts of the multipart body beyond this are spooled to disk
	maxMemory = 8 << 20
)

// ErrTooLarge means the request body exceeded the configured limit
var ErrTooLarge = errors.New("upload too large")

// ValidationError lists the form fields that were rejected
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Form is the upload form as submitted, kept raw so it can be shown again
type Form struct {
	Latitude              string
	Longitude             string
	HumanReadableLocation string
	Description           string
	Filename              string
	Audio                 []byte
	Errors                map[string]string
}

// HasAudio reports whether a non-empty sound file came with the form
func (f *Form) HasAudio() bool {
	return len(f.Audio) > 0
}

// ParseForm reads the upload form from r, limiting the body to maxBytes.
// A request that is not multipart yields a form without audio.
func ParseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (*Form, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	err := r.ParseMultipartForm(maxMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrTooLarge
		}
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}

	// only the coordinates are normalised, text goes to SoundCloud as typed
	form := &Form{
		Latitude:              strings.TrimSpace(r.FormValue("latitude")),
		Longitude:             strings.TrimSpace(r.FormValue("longitude")),
		HumanReadableLocation: r.FormValue("human_readable_location"),
		Description:           r.FormValue("description"),
		Errors:                map[string]string{},
	}

	file, header, err := r.FormFile("sound")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return form, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sound file: %w", err)
	}
	defer file.Close()

	form.Audio, err = io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrTooLarge
		}
		return nil, fmt.Errorf("failed to read sound file: %w", err)
	}
	form.Filename = header.Filename

	return form, nil
}

// Validate checks the fields and returns the submission they describe. Field
// problems are recorded in f.Errors and returned as a *ValidationError.
func (f *Form) Validate() (Submission, error) {
	f.Errors = map[string]string{}

	lat := f.coordinate("latitude", f.Latitude, 90)
	lng := f.coordinate("longitude", f.Longitude, 180)
	f.text("human_readable_location", f.HumanReadableLocation)
	f.text("description", f.Description)

	if len(f.Errors) > 0 {
		return Submission{}, &ValidationError{Fields: f.Errors}
	}

	return Submission{
		Latitude:              lat,
		Longitude:             lng,
		HumanReadableLocation: f.HumanReadableLocation,
		Description:           f.Description,
		Filename:              f.Filename,
		Audio:                 f.Audio,
	}, nil
}

func (f *Form) coordinate(field, value string, limit float64) float64 {
	if value == "" {
		f.Errors[field] = "This field is required."
		return 0
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		f.Errors[field] = "Not a valid decimal value."
		return 0
	}
	if v < -limit || v > limit {
		f.Errors[field] = fmt.Sprintf("Must be between %g and %g.", -limit, limit)
		return 0
	}
	return v
}

func (f *Form) text(field, value string) {
	if utf8.RuneCountInString(value) > MaxTextLength {
		f.Errors[field] = fmt.Sprintf("Field cannot be longer than %d characters.", MaxTextLength)
	}
}
