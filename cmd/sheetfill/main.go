package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/midbel/cli"
	"github.com/midbel/sheetfill/format"
	"github.com/midbel/sheetfill/oxml"
	"github.com/midbel/sheetfill/value"
	"github.com/xuri/excelize/v2"
)

var errFail = errors.New("fail")

var (
	summary = "sheetfill"
	help    = "fill cells of spreadsheet templates"
)

func main() {
	var (
		set  = cli.NewFlagSet("sheetfill")
		root = prepare()
	)
	root.SetSummary(summary)
	root.SetHelp(help)
	if err := set.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			root.Help()
			os.Exit(2)
		}
	}
	err := root.Execute(set.Args())
	if err != nil {
		if s, ok := err.(cli.SuggestionError); ok && len(s.Others) > 0 {
			fmt.Fprintln(os.Stderr, "similar command(s)")
			for _, n := range s.Others {
				fmt.Fprintln(os.Stderr, "-", n)
			}
		}
		if !errors.Is(err, errFail) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func prepare() *cli.CommandTrie {
	root := cli.New()
	root.Register([]string{"sheets"}, &sheetsCmd)
	root.Register([]string{"cells"}, &cellsCmd)
	root.Register([]string{"get"}, &getCmd)
	root.Register([]string{"set"}, &setCmd)
	root.Register([]string{"dump"}, &dumpCmd)
	return root
}

var sheetsCmd = cli.Command{
	Name:    "sheets",
	Alias:   []string{"info"},
	Summary: "list sheets of a spreadsheet",
	Usage:   "sheets <spreadsheet>",
	Handler: &ListSheetsCommand{},
}

var cellsCmd = cli.Command{
	Name:    "cells",
	Summary: "list the cells of a sheet that can be filled",
	Usage:   "cells [-s sheet] [-v] [-n pattern] [-d pattern] <spreadsheet>",
	Handler: &ListCellsCommand{},
}

var getCmd = cli.Command{
	Name:    "get",
	Summary: "print current values of cells",
	Usage:   "get [-s sheet] [-n pattern] [-d pattern] <spreadsheet> <[sheet!]cell>...",
	Handler: &GetCellsCommand{},
}

var setCmd = cli.Command{
	Name:    "set",
	Alias:   []string{"fill"},
	Summary: "overwrite values of cells and write the result",
	Usage:   "set [-s sheet] [-o file] [-i] [-x] <spreadsheet> <[sheet!]cell=value>...",
	Handler: &SetCellsCommand{},
}

var dumpCmd = cli.Command{
	Name:    "dump",
	Alias:   []string{"print", "show"},
	Summary: "print content of a sheet",
	Usage:   "dump [-s sheet] [-w width] [-p sep] [-n] <spreadsheet>",
	Handler: &DumpSheetCommand{},
}

type ListSheetsCommand struct{}

func (c ListSheetsCommand) Run(args []string) error {
	set := cli.NewFlagSet("sheets")
	if err := set.Parse(args); err != nil {
		return err
	}
	f, err := oxml.Open(set.Arg(0))
	if err != nil {
		return err
	}
	pattern := "%s %s (%s) %s"
	for _, s := range f.Sheets() {
		fmt.Fprintf(os.Stdout, pattern, s.Index, s.Name, s.State, s.Id)
		fmt.Fprintln(os.Stdout)
	}
	return nil
}

type ListCellsCommand struct {
	Sheet  string
	Values bool
	FormatOptions
}

func (c ListCellsCommand) Run(args []string) error {
	set := cli.NewFlagSet("cells")
	set.StringVar(&c.Sheet, "s", "", "sheet")
	set.BoolVar(&c.Values, "v", false, "print values")
	c.FormatOptions.Attach(set)
	if err := set.Parse(args); err != nil {
		return err
	}
	vf, err := c.Formatter()
	if err != nil {
		return err
	}
	f, err := oxml.Open(set.Arg(0))
	if err != nil {
		return err
	}
	ws, err := getWorksheet(f, c.Sheet)
	if err != nil {
		return err
	}
	for _, addr := range ws.Cells() {
		if !c.Values {
			fmt.Fprintln(os.Stdout, addr)
			continue
		}
		v, err := ws.Value(addr)
		if err != nil {
			return err
		}
		str, err := vf.Format(v)
		if err != nil {
			return fmt.Errorf("%s: %w", addr, err)
		}
		fmt.Fprintf(os.Stdout, "%s\t%s\t%s", addr, v.Kind(), str)
		fmt.Fprintln(os.Stdout)
	}
	return nil
}

type GetCellsCommand struct {
	Sheet string
	FormatOptions
}

func (c GetCellsCommand) Run(args []string) error {
	set := cli.NewFlagSet("get")
	set.StringVar(&c.Sheet, "s", "", "default sheet")
	c.FormatOptions.Attach(set)
	if err := set.Parse(args); err != nil {
		return err
	}
	vf, err := c.Formatter()
	if err != nil {
		return err
	}
	f, err := oxml.Open(set.Arg(0))
	if err != nil {
		return err
	}
	for i := 1; i < set.NArg(); i++ {
		sheet, addr := splitAddr(set.Arg(i), c.Sheet)
		ws, err := getWorksheet(f, sheet)
		if err != nil {
			return err
		}
		v, err := ws.Value(addr)
		if err != nil {
			return err
		}
		str, err := vf.Format(v)
		if err != nil {
			return fmt.Errorf("%s!%s: %w", ws.Name(), addr, err)
		}
		fmt.Fprintf(os.Stdout, "%s!%s: %s", ws.Name(), addr, str)
		fmt.Fprintln(os.Stdout)
	}
	return nil
}

type SetCellsCommand struct {
	OutFile string
	Sheet   string
	Infer   bool
	Shared  bool
}

func (c SetCellsCommand) Run(args []string) error {
	set := cli.NewFlagSet("set")
	set.StringVar(&c.OutFile, "o", "", "write result to output file")
	set.StringVar(&c.Sheet, "s", "", "default sheet")
	set.BoolVar(&c.Infer, "i", false, "infer numbers and booleans from values")
	set.BoolVar(&c.Shared, "x", false, "store text in the shared strings table")
	if err := set.Parse(args); err != nil {
		return err
	}
	f, err := oxml.Open(set.Arg(0))
	if err != nil {
		return err
	}
	for i := 1; i < set.NArg(); i++ {
		a, err := parseAssignment(set.Arg(i), c.Sheet)
		if err != nil {
			return err
		}
		if err := c.apply(f, a); err != nil {
			return err
		}
	}
	if c.OutFile == "" {
		c.OutFile = set.Arg(0)
	}
	return f.WriteFile(c.OutFile)
}

func (c SetCellsCommand) apply(f *oxml.File, a assignment) error {
	ws, err := getWorksheet(f, a.Sheet)
	if err != nil {
		return err
	}
	val := value.Value(value.Text(a.Value))
	if c.Infer {
		val = value.Infer(a.Value)
	}
	if c.Shared && val.Kind() == value.KindText {
		return ws.SetSharedString(a.Cell, a.Value)
	}
	return ws.SetValue(a.Cell, val)
}

type DumpSheetCommand struct {
	Sheet string
	Width int
	Sep   string
	Lino  bool
}

func (c DumpSheetCommand) Run(args []string) error {
	set := cli.NewFlagSet("dump")
	set.StringVar(&c.Sheet, "s", "", "sheet")
	set.StringVar(&c.Sep, "p", "|", "column separator")
	set.IntVar(&c.Width, "w", 12, "column width")
	set.BoolVar(&c.Lino, "n", false, "print line number")
	if err := set.Parse(args); err != nil {
		return err
	}
	f, err := excelize.OpenFile(set.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	if c.Sheet == "" {
		c.Sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(c.Sheet)
	if err != nil {
		return err
	}
	if c.Width <= 0 {
		c.Width = 16
	}
	for lino, row := range rows {
		if c.Lino {
			fmt.Fprintf(os.Stdout, "%-5d ", lino+1)
			fmt.Fprint(os.Stdout, c.Sep)
		}
		for i, v := range row {
			if i > 0 {
				fmt.Fprint(os.Stdout, c.Sep)
			}
			fmt.Fprintf(os.Stdout, " %-*s ", c.Width, v)
		}
		fmt.Fprintln(os.Stdout)
	}
	return nil
}

type FormatOptions struct {
	Number string
	Date   string
}

type flagSet interface {
	StringVar(*string, string, string, string)
}

func (o *FormatOptions) Attach(set flagSet) {
	set.StringVar(&o.Number, "n", "", "number pattern")
	set.StringVar(&o.Date, "d", "", "print numbers as dates with pattern")
}

func (o FormatOptions) Formatter() (*format.ValueFormatter, error) {
	vf := format.FormatValue()
	if o.Number != "" {
		if err := vf.Number(o.Number); err != nil {
			return nil, err
		}
	}
	if o.Date != "" {
		if err := vf.Date(o.Date); err != nil {
			return nil, err
		}
	}
	return vf, nil
}

type assignment struct {
	Sheet string
	Cell  string
	Value string
}

func parseAssignment(str, sheet string) (assignment, error) {
	var a assignment
	ref, val, ok := strings.Cut(str, "=")
	if !ok || ref == "" {
		return a, fmt.Errorf("%s: invalid assignment, expected [sheet!]cell=value", str)
	}
	a.Sheet, a.Cell = splitAddr(ref, sheet)
	a.Value = val
	return a, nil
}

func splitAddr(str, sheet string) (string, string) {
	ix := strings.LastIndex(str, "!")
	if ix < 0 {
		return sheet, str
	}
	return str[:ix], str[ix+1:]
}

func getWorksheet(f *oxml.File, sheet string) (*oxml.Worksheet, error) {
	if sheet == "" {
		names := f.SheetNames()
		if len(names) == 0 {
			return nil, fmt.Errorf("no sheet in spreadsheet")
		}
		sheet = names[0]
	}
	return f.Worksheet(sheet)
}
