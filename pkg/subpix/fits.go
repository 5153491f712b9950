package subpix

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	fitsBlockSize  = 2880
	fitsRecordSize = 80

	// maxFitsPixels bounds the allocation a header can request.
	maxFitsPixels = 1 << 28
)

// FitsCard is one header record. Value holds the raw value text as it appears
// in the file (strings keep their quotes); commentary cards such as HISTORY
// keep their text in Comment.
type FitsCard struct {
	Key     string
	Value   string
	Comment string
}

// FitsHeader holds the header cards of a primary HDU in file order.
type FitsHeader struct {
	Cards []FitsCard
}

func NewFitsHeader() *FitsHeader {
	return &FitsHeader{}
}

func (h *FitsHeader) find(key string) int {
	key = strings.ToUpper(key)
	for i, c := range h.Cards {
		if c.Key == key && c.Value != "" {
			return i
		}
	}
	return -1
}

// Get returns the parsed value of key: strings without quotes, logicals as
// "True"/"False", everything else verbatim.
func (h *FitsHeader) Get(key string) (string, bool) {
	i := h.find(key)
	if i < 0 {
		return "", false
	}
	return parseFitsValue(h.Cards[i].Value), true
}

func (h *FitsHeader) GetString(key string) string {
	v, _ := h.Get(key)
	return v
}

func (h *FitsHeader) GetDouble(key string) (float64, bool) {
	v, ok := h.Get(key)
	if !ok {
		return 0, false
	}
	d, err := parseFitsFloat(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

// parseFitsFloat parses a real value, accepting Fortran-style D exponents.
func parseFitsFloat(v string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(strings.TrimSpace(v), "D", "E", 1), 64)
}

func (h *FitsHeader) GetInt(key string) (int, bool) {
	v, ok := h.Get(key)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return i, true
}

// set replaces the value of key or appends a new card.
func (h *FitsHeader) set(key, raw, comment string) {
	key = strings.ToUpper(key)
	if i := h.find(key); i >= 0 {
		h.Cards[i].Value = raw
		h.Cards[i].Comment = comment
		return
	}
	h.Cards = append(h.Cards, FitsCard{Key: key, Value: raw, Comment: comment})
}

func (h *FitsHeader) SetString(key, value, comment string) {
	h.set(key, quoteFitsString(value), comment)
}

func (h *FitsHeader) SetFloat(key string, value float64, comment string) {
	h.set(key, strconv.FormatFloat(value, 'G', -1, 64), comment)
}

func (h *FitsHeader) SetInt(key string, value int, comment string) {
	h.set(key, strconv.Itoa(value), comment)
}

// AddHistory appends a HISTORY card.
func (h *FitsHeader) AddHistory(text string) {
	h.Cards = append(h.Cards, FitsCard{Key: "HISTORY", Comment: text})
}

// AnnotateCentering records a centering result and the parameters that
// produced it.
func (h *FitsHeader) AnnotateCentering(res *Result, p *CenteringParams) {
	h.SetFloat("CENOFFX", res.Offset.DX, "symmetry center offset from array center x [px]")
	h.SetFloat("CENOFFY", res.Offset.DY, "symmetry center offset from array center y [px]")
	h.SetFloat("CENX", res.CenterX, "symmetry center x in input pixels (0-based)")
	h.SetFloat("CENY", res.CenterY, "symmetry center y in input pixels (0-based)")
	h.SetInt("CENANGLE", p.NumAngles, "test rotation angles")
	h.SetInt("CENBOX", p.BoxSize, "compared window diameter [px]")
	h.SetInt("CENPASS", len(res.Passes), "centering passes")
	h.SetString("CENSTATE", res.State.String(), "centering outcome")
	h.AddHistory("re-centered on the center of rotational symmetry")
}

// FitsImage is the first image plane of a FITS primary HDU in physical units
// (BZERO/BSCALE applied). Integer samples equal to BLANK read as NaN.
type FitsImage struct {
	Image  Image
	Header *FitsHeader
	Bitpix int
}

// ReadFits reads the primary HDU of a FITS file.
func ReadFits(filePath string) (*FitsImage, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	return readFitsFromReader(bufio.NewReader(f))
}

// ReadFitsFromBytes reads the primary HDU from an in-memory FITS file.
func ReadFitsFromBytes(data []byte) (*FitsImage, error) {
	return readFitsFromReader(bytes.NewReader(data))
}

func readFitsFromReader(r io.Reader) (*FitsImage, error) {
	header := NewFitsHeader()
	var bitpix, naxis, width, height int
	bzero, bscale := 0.0, 1.0
	blank, hasBlank := int64(0), false

	recordBuf := make([]byte, fitsRecordSize)
	headerDone := false
	for !headerDone {
		for i := 0; i < fitsBlockSize/fitsRecordSize; i++ {
			if _, err := io.ReadFull(r, recordBuf); err != nil {
				return nil, fmt.Errorf("reading FITS header record: %w", err)
			}
			card := parseFitsCard(string(recordBuf))
			if card.Key == "END" {
				headerDone = true
				if remaining := 35 - i; remaining > 0 {
					if _, err := io.ReadFull(r, make([]byte, remaining*fitsRecordSize)); err != nil {
						return nil, fmt.Errorf("reading FITS header padding: %w", err)
					}
				}
				break
			}
			header.Cards = append(header.Cards, card)

			v := strings.TrimSpace(card.Value)
			var err error
			switch card.Key {
			case "BITPIX":
				bitpix, err = strconv.Atoi(v)
			case "NAXIS":
				naxis, err = strconv.Atoi(v)
			case "NAXIS1":
				width, err = strconv.Atoi(v)
			case "NAXIS2":
				height, err = strconv.Atoi(v)
			case "BZERO":
				bzero, err = parseFitsFloat(v)
			case "BSCALE":
				bscale, err = parseFitsFloat(v)
			case "BLANK":
				// Only meaningful for integer data; ignore it when unusable.
				if b, perr := strconv.ParseInt(v, 10, 64); perr == nil {
					blank, hasBlank = b, true
				}
			}
			if err != nil {
				return nil, fmt.Errorf("invalid FITS %s value %q: %w", card.Key, v, err)
			}
		}
	}

	if naxis < 2 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid FITS: NAXIS=%d, NAXIS1=%d, NAXIS2=%d", naxis, width, height)
	}
	if width > maxFitsPixels/height {
		return nil, fmt.Errorf("invalid FITS: %dx%d image exceeds %d pixels", width, height, maxFitsPixels)
	}

	switch bitpix {
	case 8, 16, 32, 64, -32, -64:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitpix, bitpix)
	}
	bytesPer := bitpix / 8
	if bytesPer < 0 {
		bytesPer = -bytesPer
	}

	numPixels := width * height
	raw := make([]byte, numPixels*bytesPer)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("reading %d-bit pixel data: %w", bitpix, err)
	}

	pixels := make([]float64, numPixels)
	integer := func(i int, v int64) {
		if hasBlank && v == blank {
			pixels[i] = math.NaN()
			return
		}
		pixels[i] = float64(v)*bscale + bzero
	}
	for i := range pixels {
		switch bitpix {
		case 8:
			integer(i, int64(raw[i]))
		case 16:
			integer(i, int64(int16(binary.BigEndian.Uint16(raw[i*2:]))))
		case 32:
			integer(i, int64(int32(binary.BigEndian.Uint32(raw[i*4:]))))
		case 64:
			integer(i, int64(binary.BigEndian.Uint64(raw[i*8:])))
		case -32:
			pixels[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(raw[i*4:])))*bscale + bzero
		case -64:
			pixels[i] = math.Float64frombits(binary.BigEndian.Uint64(raw[i*8:]))*bscale + bzero
		}
	}

	img, err := NewImageFromData(height, width, pixels)
	if err != nil {
		return nil, err
	}
	return &FitsImage{Image: img, Header: header, Bitpix: bitpix}, nil
}

// structuralKeys describe the data layout and are regenerated on write.
var structuralKeys = map[string]bool{
	"SIMPLE": true, "BITPIX": true, "NAXIS": true, "EXTEND": true,
	"BZERO": true, "BSCALE": true, "BLANK": true, "END": true,
	"PCOUNT": true, "GCOUNT": true, "XTENSION": true,
}

func isStructural(key string) bool {
	if structuralKeys[key] {
		return true
	}
	return strings.HasPrefix(key, "NAXIS")
}

// WriteFits writes img as a BITPIX -64 primary HDU, replacing any existing
// file. Non-structural cards of header are carried over in order.
func WriteFits(filePath string, img Image, header *FitsHeader) error {
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("creating FITS file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := EncodeFits(w, img, header); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing FITS file: %w", err)
	}
	return f.Close()
}

// EncodeFits writes img and header as a FITS primary HDU to w.
func EncodeFits(w io.Writer, img Image, header *FitsHeader) error {
	if img.Empty() {
		return fmt.Errorf("encoding FITS: empty image")
	}
	var hdr bytes.Buffer
	writeCard := func(c FitsCard) {
		hdr.WriteString(formatFitsCard(c))
	}
	writeCard(FitsCard{Key: "SIMPLE", Value: "T", Comment: "conforms to FITS standard"})
	writeCard(FitsCard{Key: "BITPIX", Value: "-64", Comment: "IEEE double precision"})
	writeCard(FitsCard{Key: "NAXIS", Value: "2"})
	writeCard(FitsCard{Key: "NAXIS1", Value: strconv.Itoa(img.cols)})
	writeCard(FitsCard{Key: "NAXIS2", Value: strconv.Itoa(img.rows)})
	if header != nil {
		for _, c := range header.Cards {
			if isStructural(c.Key) {
				continue
			}
			writeCard(c)
		}
	}
	writeCard(FitsCard{Key: "END"})
	padTo(&hdr, ' ')
	if _, err := w.Write(hdr.Bytes()); err != nil {
		return fmt.Errorf("writing FITS header: %w", err)
	}

	data := bytes.NewBuffer(make([]byte, 0, len(img.data)*8+fitsBlockSize))
	var b [8]byte
	for _, v := range img.data {
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
		data.Write(b[:])
	}
	padTo(data, 0)
	if _, err := w.Write(data.Bytes()); err != nil {
		return fmt.Errorf("writing FITS data: %w", err)
	}
	return nil
}

func padTo(buf *bytes.Buffer, fill byte) {
	if rem := buf.Len() % fitsBlockSize; rem != 0 {
		buf.Write(bytes.Repeat([]byte{fill}, fitsBlockSize-rem))
	}
}

// parseFitsCard splits an 80-byte record into keyword, raw value and comment.
func parseFitsCard(record string) FitsCard {
	card := FitsCard{Key: strings.ToUpper(strings.TrimSpace(record[:8]))}
	if len(record) < 10 || record[8] != '=' || record[9] != ' ' {
		if len(record) > 8 {
			card.Comment = strings.TrimRight(record[8:], " ")
		}
		return card
	}

	rest := record[10:]
	trimmed := strings.TrimLeft(rest, " ")
	if strings.HasPrefix(trimmed, "'") {
		// Quotes inside strings are doubled.
		end := 1
		for end < len(trimmed) {
			if trimmed[end] == '\'' {
				if end+1 < len(trimmed) && trimmed[end+1] == '\'' {
					end += 2
					continue
				}
				break
			}
			end++
		}
		if end >= len(trimmed) {
			card.Value = strings.TrimRight(trimmed, " ")
			return card
		}
		card.Value = trimmed[:end+1]
		rest = trimmed[end+1:]
		if i := strings.Index(rest, "/"); i >= 0 {
			card.Comment = strings.TrimSpace(rest[i+1:])
		}
		return card
	}

	parts := strings.SplitN(rest, "/", 2)
	card.Value = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		card.Comment = strings.TrimSpace(parts[1])
	}
	return card
}

func formatFitsCard(c FitsCard) string {
	var s string
	switch {
	case c.Key == "END":
		s = "END"
	case c.Value == "":
		s = fmt.Sprintf("%-8s%s", c.Key, c.Comment)
	case strings.HasPrefix(c.Value, "'"):
		s = fmt.Sprintf("%-8s= %-20s", c.Key, c.Value)
	default:
		s = fmt.Sprintf("%-8s= %20s", c.Key, c.Value)
	}
	if c.Value != "" && c.Comment != "" {
		s += " / " + c.Comment
	}
	if len(s) > fitsRecordSize {
		return s[:fitsRecordSize]
	}
	return s + strings.Repeat(" ", fitsRecordSize-len(s))
}

func quoteFitsString(v string) string {
	v = strings.ReplaceAll(v, "'", "''")
	if len(v) < 8 {
		v += strings.Repeat(" ", 8-len(v))
	}
	return "'" + v + "'"
}

func parseFitsValue(rawValue string) string {
	if rawValue == "" {
		return ""
	}
	if rawValue == "T" {
		return "True"
	}
	if rawValue == "F" {
		return "False"
	}
	if strings.HasPrefix(rawValue, "'") {
		endQuote := strings.LastIndex(rawValue, "'")
		if endQuote > 0 {
			return strings.ReplaceAll(strings.TrimRight(rawValue[1:endQuote], " "), "''", "'")
		}
		return strings.TrimLeft(strings.TrimRight(rawValue, " "), "'")
	}
	return rawValue
}
