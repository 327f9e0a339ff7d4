package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/FichesVente-api/internal/application/inventory"
	"github.com/jhoicas/FichesVente-api/internal/domain/entity"
)

var expectedHeader = []string{"name", "on_hand", "baseline", "alert_threshold", "unit", "unit_price"}

// itemRow fila del CSV ya convertida; Line es la línea de origen (1 = cabecera).
type itemRow struct {
	inventory.NewItemInput
	Line int
}

// decodeReader envuelve r para leerlo como UTF-8.
func decodeReader(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	}
	return nil, fmt.Errorf("charset %q", charset)
}

// parseItems lee la cabecera y las filas. El separador (';' o ',') se deduce de la cabecera.
func parseItems(r io.Reader) ([]itemRow, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.TrimPrefix(string(raw), "\ufeff")

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = detectComma(text)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("CSV vacío")
	}
	if err != nil {
		return nil, err
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var rows []itemRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		in, err := toInput(rec)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		rows = append(rows, itemRow{NewItemInput: in, Line: line})
	}
	return rows, nil
}

func detectComma(text string) rune {
	first, _, _ := strings.Cut(text, "\n")
	if strings.Count(first, ";") >= strings.Count(first, ",") {
		return ';'
	}
	return ','
}

func checkHeader(header []string) error {
	if len(header) != len(expectedHeader) {
		return fmt.Errorf("cabecera: se esperaban %d columnas, hay %d", len(expectedHeader), len(header))
	}
	for i, h := range header {
		if !strings.EqualFold(strings.TrimSpace(h), expectedHeader[i]) {
			return fmt.Errorf("cabecera: columna %d debe ser %q", i+1, expectedHeader[i])
		}
	}
	return nil
}

func toInput(rec []string) (inventory.NewItemInput, error) {
	var in inventory.NewItemInput
	if len(rec) != len(expectedHeader) {
		return in, fmt.Errorf("se esperaban %d columnas, hay %d", len(expectedHeader), len(rec))
	}
	in.Name = strings.TrimSpace(rec[0])

	ints := []*int{&in.OnHand, &in.Baseline, &in.AlertThreshold}
	for i, dst := range ints {
		v, err := strconv.Atoi(strings.TrimSpace(rec[i+1]))
		if err != nil {
			return in, fmt.Errorf("%s: %q no es un entero", expectedHeader[i+1], rec[i+1])
		}
		*dst = v
	}

	in.Unit = strings.ToUpper(strings.TrimSpace(rec[4]))
	if in.Unit == "" {
		in.Unit = entity.UnitUnit
	}

	// admite coma decimal y espacios de miles ("1 500,50")
	price := strings.ReplaceAll(strings.TrimSpace(rec[5]), " ", "")
	price = strings.ReplaceAll(price, ",", ".")
	if price == "" {
		price = "0"
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return in, fmt.Errorf("unit_price: %q no es un importe", rec[5])
	}
	in.UnitPrice = d
	return in, nil
}
