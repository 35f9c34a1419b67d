package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/miarbol/internal/client/models"
	"github.com/dmitrijs2005/miarbol/internal/client/output"
)

const forceFlag = "--force"

func splitForce(args []string) ([]string, bool) {
	rest := make([]string, 0, len(args))
	force := false
	for _, a := range args {
		if a == forceFlag {
			force = true
			continue
		}
		rest = append(rest, a)
	}
	return rest, force
}

func treeTable(trees []models.Tree) output.Table {
	t := output.Table{Headers: []string{"ID", "NOMBRE", "PAÍS", "ESTADO", "PLANTADO", "LAT", "LON"}}
	for _, tr := range trees {
		t.Rows = append(t.Rows, []string{
			string(tr.ID), tr.Name, tr.Country, string(tr.Status), formatTime(tr.PlantedAt),
			strconv.FormatFloat(tr.Latitude, 'f', 5, 64), strconv.FormatFloat(tr.Longitude, 'f', 5, 64),
		})
	}
	return t
}

// Trees lists trees, optionally filtered by name=value pairs.
func (a *App) Trees(ctx context.Context, args []string) error {
	rest, force := splitForce(args)
	f, err := models.ParseTreeFilter(rest)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	trees := a.trees.LoadTrees(ctx, f, force)
	return a.printer.Print(trees, treeTable(trees))
}

func (a *App) Markers(ctx context.Context, args []string) error {
	_, force := splitForce(args)
	markers := a.trees.LoadTreeMarkers(ctx, force)

	t := output.Table{Headers: []string{"ID", "LAT", "LON", "ESTADO"}}
	for _, m := range markers {
		t.Rows = append(t.Rows, []string{
			string(m.ID), strconv.FormatFloat(m.Latitude, 'f', 5, 64), strconv.FormatFloat(m.Longitude, 'f', 5, 64), string(m.Status),
		})
	}
	return a.printer.Print(markers, t)
}

// Stats loads the unfiltered list (cached when possible) and prints the
// aggregate counters.
func (a *App) Stats(ctx context.Context, _ []string) error {
	a.trees.LoadTrees(ctx, nil, false)
	st := a.trees.Stats()
	return a.printer.Print(st, output.Table{
		Headers: []string{"TOTAL", "PAÍSES", "PLANTADOS", "EN PROCESO"},
		Rows:    [][]string{{strconv.Itoa(st.Total), strconv.Itoa(st.Countries), strconv.Itoa(st.Planted), strconv.Itoa(st.InProgress)}},
	})
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usageError("show")
	}
	t, err := a.trees.GetTreeByID(ctx, models.ID(args[0]))
	if err != nil {
		return err
	}
	return a.printer.Print(t, treeTable([]models.Tree{*t}))
}

func (a *App) Plant(ctx context.Context, _ []string) error {
	var in models.NewTreeInput
	var err error

	if in.Name, err = getSimpleText(a.reader, "Nombre del árbol", a.out); err != nil {
		return err
	}
	if in.Country, err = getSimpleText(a.reader, "País", a.out); err != nil {
		return err
	}
	if in.Latitude, err = GetFloat(a.reader, "Latitud", a.out); err != nil {
		return err
	}
	if in.Longitude, err = GetFloat(a.reader, "Longitud", a.out); err != nil {
		return err
	}
	if in.Dedication, err = GetOptionalText(a.reader, "Dedicatoria (opcional)", "", a.out); err != nil {
		return err
	}

	if in.Name == "" || in.Country == "" {
		printlnFn("El nombre y el país son obligatorios")
		return errUsage
	}

	t, err := a.trees.PlantTree(ctx, in)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Árbol %s creado", t.ID))
	return nil
}

func (a *App) Status(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return a.usageError("status")
	}
	status := models.TreeStatus(args[1])
	if !status.Valid() {
		printlnFn("Estado inválido:", args[1])
		return errUsage
	}
	_, err := a.trees.UpdateTreeStatus(ctx, models.ID(args[0]), status)
	return err
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usageError("delete")
	}
	return a.trees.DeleteTree(ctx, models.ID(args[0]))
}
