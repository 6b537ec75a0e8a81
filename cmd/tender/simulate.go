package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jrsteele09/go-tender-client/api"
	apperrors "github.com/jrsteele09/go-tender-client/internal/errors"
	"github.com/jrsteele09/go-tender-client/report"
	"github.com/jrsteele09/go-tender-client/simulate"
)

func runSimulate(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(a.errOut, "usage: tender %s\n", commands["simulate"].usage)
		return fmt.Errorf("simulate: expected list or total")
	}
	switch args[0] {
	case "list":
		return runSimulateList(ctx, a, args[1:])
	case "total":
		return runSimulateTotal(a, args[1:])
	default:
		return fmt.Errorf("simulate: unknown mode %q", args[0])
	}
}

type simulateFlags struct {
	input    *string
	seed     *uint64
	pdf      *string
	decimals *int
}

func addSimulateFlags(a *app, fs *flag.FlagSet) simulateFlags {
	return simulateFlags{
		input:    fs.String("input", "", "YAML simulation file"),
		seed:     fs.Uint64("seed", 0, "random seed; 0 draws a fresh one"),
		pdf:      fs.String("pdf", "", "also write a PDF report to this path"),
		decimals: fs.Int("decimals", a.cfg.GetDisplayDecimals(), "decimal places shown"),
	}
}

func (f simulateFlags) simulator(a *app) *simulate.Simulator {
	opts := []simulate.Option{
		simulate.WithRecommendationSpread(a.cfg.GetRecommendationSpread()),
		simulate.WithLogger(a.logger),
	}
	if *f.seed != 0 {
		opts = append(opts, simulate.WithSource(simulate.NewSource(*f.seed)))
	}
	return simulate.New(opts...)
}

func (f simulateFlags) load() (*simulate.Input, error) {
	if *f.input == "" {
		return nil, apperrors.Invalid("input", "a YAML simulation file is required")
	}
	return simulate.LoadInput(*f.input)
}

func writePDF(path string, write func(io.Writer) error) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(out); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func runSimulateList(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "simulate")
	flags := addSimulateFlags(a, fs)
	itemsFile := fs.String("items", "", "CSV of line items, replacing any in the input file")
	details := fs.Bool("details", false, "show per-item prices for every sample")
	remote := fs.Bool("remote", false, "run the simulation on the server instead of locally")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in, err := flags.load()
	if err != nil {
		return err
	}
	if *itemsFile != "" {
		if in.Items, err = simulate.LoadLineItems(*itemsFile); err != nil {
			return err
		}
	}

	if *remote {
		return submitRemote(ctx, a, in, *itemsFile, *flags.decimals)
	}

	res, err := flags.simulator(a).Simulate(in.Items, in.Groups)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, report.ListPrice(res, *flags.decimals))
	if *details {
		fmt.Fprintln(a.out, report.ItemBreakdown(res, *flags.decimals))
	}
	if *flags.pdf != "" {
		err := writePDF(*flags.pdf, func(w io.Writer) error {
			return report.ListPricePDF(w, res, time.Now(), *flags.decimals)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "report written to %s\n", *flags.pdf)
	}
	return nil
}

// submitRemote uploads the line items as CSV. Items given inline in the
// YAML file are serialised first.
func submitRemote(ctx context.Context, a *app, in *simulate.Input, itemsFile string, decimals int) error {
	if err := simulate.Validate(in.Items, in.Groups); err != nil {
		return err
	}

	var (
		name = "items.csv"
		body io.Reader
	)
	if itemsFile != "" {
		f, err := os.Open(itemsFile)
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck
		name, body = filepath.Base(itemsFile), f
	} else {
		data, err := itemsCSV(in.Items)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	res, err := a.api.SubmitListSimulation(ctx, name, body, in.Groups)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, remoteTable(res, decimals))
	return nil
}

func itemsCSV(items []simulate.LineItem) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"name", "unit_price", "quantity"})
	for _, it := range items {
		_ = w.Write([]string{
			it.Name,
			strconv.FormatFloat(it.UnitPrice, 'f', -1, 64),
			strconv.FormatFloat(it.Quantity, 'f', -1, 64),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func remoteTable(res *api.ListSimulationResult, decimals int) string {
	rows := make([][]string, 0, len(res.List)+1)
	for _, line := range res.List {
		rows = append(rows, []string{line.Name, report.Format(float64(line.Price), decimals), strconv.Itoa(len(line.Details))})
	}
	rows = append(rows, []string{"total", report.Format(float64(res.Total), decimals), ""})
	return report.Title("Server list-price simulation") + "\n" +
		report.Table([]string{"item", "mean price", "samples"}, rows)
}

func runSimulateTotal(a *app, args []string) error {
	fs := newFlagSet(a, "simulate")
	flags := addSimulateFlags(a, fs)
	m := fs.Int("m", 0, "number of recommended control prices, overriding the input file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in, err := flags.load()
	if err != nil {
		return err
	}
	if in.Total == nil {
		return apperrors.Invalid("total", "the input file has no total section")
	}
	recommended := in.Total.Recommended
	if *m > 0 {
		recommended = *m
	}

	res, err := flags.simulator(a).SimulateTotal(in.Total.Ranges, recommended)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, report.TotalPrice(res, *flags.decimals))
	if *flags.pdf != "" {
		err := writePDF(*flags.pdf, func(w io.Writer) error {
			return report.TotalPricePDF(w, res, time.Now(), *flags.decimals)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "report written to %s\n", *flags.pdf)
	}
	return nil
}
