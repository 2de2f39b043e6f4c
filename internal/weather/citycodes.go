package weather

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// cityCodeEntry pairs a place name with its adcode, preserving CSV file order
// so that substring fallback is deterministic.
type cityCodeEntry struct {
	name   string
	adcode string
}

// CityCodeTable resolves Chinese place names to Amap adcodes. It is built
// from the AMap_adcode_citycode.CSV table shipped with the Amap Web service
// docs: GBK-encoded, header row with 中文名, adcode and citycode columns.
type CityCodeTable struct {
	byName  map[string]string
	ordered []cityCodeEntry
}

var _ CityCodeResolver = (*CityCodeTable)(nil)

// LoadCityCodes reads the adcode CSV at path.
func LoadCityCodes(path string) (*CityCodeTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open city code file: %w", err)
	}
	defer file.Close()

	table, err := parseCityCodes(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse city code file %s: %w", path, err)
	}
	return table, nil
}

func parseCityCodes(r io.Reader) (*CityCodeTable, error) {
	// The file ships GBK-encoded; decode on the way in.
	reader := csv.NewReader(transform.NewReader(r, simplifiedchinese.GBK.NewDecoder()))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("missing header row: %w", err)
	}
	nameIdx, adcodeIdx := -1, -1
	for i, column := range header {
		switch strings.TrimSpace(column) {
		case "中文名":
			nameIdx = i
		case "adcode":
			adcodeIdx = i
		}
	}
	if nameIdx < 0 || adcodeIdx < 0 {
		return nil, fmt.Errorf("header is missing the 中文名/adcode columns: %v", header)
	}

	table := &CityCodeTable{byName: make(map[string]string)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed row: %w", err)
		}
		if len(record) <= nameIdx || len(record) <= adcodeIdx {
			continue
		}
		name := strings.TrimSpace(record[nameIdx])
		adcode := strings.TrimSpace(record[adcodeIdx])
		// Aggregate rows carry a literal \N instead of an adcode.
		if name == "" || adcode == "" || adcode == `\N` {
			continue
		}
		// First occurrence wins; the table lists 北京市 both as the
		// municipality (110000) and again as a city row.
		if _, exists := table.byName[name]; !exists {
			table.byName[name] = adcode
			table.ordered = append(table.ordered, cityCodeEntry{name: name, adcode: adcode})
		}
	}
	return table, nil
}

// Count returns the number of loaded entries.
func (t *CityCodeTable) Count() int {
	return len(t.ordered)
}

// Resolve implements CityCodeResolver. An exact name match wins; otherwise
// the first entry in file order where one name contains the other, so that
// 北京 finds 北京市 and 杭州市区 finds 杭州市.
func (t *CityCodeTable) Resolve(location string) (string, bool) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", false
	}
	if adcode, ok := t.byName[location]; ok {
		return adcode, true
	}
	for _, entry := range t.ordered {
		if strings.Contains(entry.name, location) || strings.Contains(location, entry.name) {
			return entry.adcode, true
		}
	}
	return "", false
}
