// Package export writes simulation snapshot sequences to CSV.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/sysdyn/sysdyn/internal/ids"
	"github.com/sysdyn/sysdyn/sim"
)

// WriteCSV writes states to fileName, one row per snapshot: time,
// followed by every stock, flow rate, and variable value, each column
// ordered alphabetically by name. Grounded on this codebase's
// bufio.Writer-plus-explicit-flush/close convention for file output.
func WriteCSV(m *sim.Model, states []sim.SimState, fileName string) error {
	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("export: creating %s: %w", fileName, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logrus.Warnf("export: closing %s: %v", fileName, closeErr)
		}
	}()

	writer := bufio.NewWriter(file)
	csvw := csv.NewWriter(writer)

	stockNames, stockByName := indexStocks(m)
	flowNames, flowByName := indexFlows(m)
	variableNames, variableByName := indexVariables(m)

	header := make([]string, 0, 1+len(stockNames)+len(flowNames)+len(variableNames))
	header = append(header, "time")
	header = append(header, stockNames...)
	header = append(header, flowNames...)
	header = append(header, variableNames...)
	if err := csvw.Write(header); err != nil {
		return fmt.Errorf("export: writing header: %w", err)
	}

	for _, s := range states {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatFloat(s.Time, 'g', -1, 64))
		for _, name := range stockNames {
			row = append(row, strconv.FormatFloat(s.Stocks[stockByName[name]], 'g', -1, 64))
		}
		for _, name := range flowNames {
			row = append(row, strconv.FormatFloat(s.Rates[flowByName[name]], 'g', -1, 64))
		}
		for _, name := range variableNames {
			row = append(row, strconv.FormatFloat(s.Variables[variableByName[name]], 'g', -1, 64))
		}
		if err := csvw.Write(row); err != nil {
			return fmt.Errorf("export: writing row at t=%v: %w", s.Time, err)
		}
	}

	csvw.Flush()
	if err := csvw.Error(); err != nil {
		return fmt.Errorf("export: flushing csv writer: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("export: flushing %s: %w", fileName, err)
	}
	logrus.Debugf("export: wrote %d snapshot(s) to %s", len(states), fileName)
	return nil
}

func indexStocks(m *sim.Model) ([]string, map[string]ids.StockID) {
	names := make([]string, 0, len(m.Stocks))
	byName := make(map[string]ids.StockID, len(m.Stocks))
	for _, s := range m.Stocks {
		names = append(names, s.Name)
		byName[s.Name] = s.ID
	}
	sort.Strings(names)
	return names, byName
}

func indexFlows(m *sim.Model) ([]string, map[string]ids.FlowID) {
	names := make([]string, 0, len(m.Flows))
	byName := make(map[string]ids.FlowID, len(m.Flows))
	for _, f := range m.Flows {
		names = append(names, f.Name)
		byName[f.Name] = f.ID
	}
	sort.Strings(names)
	return names, byName
}

func indexVariables(m *sim.Model) ([]string, map[string]ids.VariableID) {
	names := make([]string, 0, len(m.Variables))
	byName := make(map[string]ids.VariableID, len(m.Variables))
	for _, v := range m.Variables {
		names = append(names, v.Name)
		byName[v.Name] = v.ID
	}
	sort.Strings(names)
	return names, byName
}
