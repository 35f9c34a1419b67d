package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/miarbol/internal/client/models"
	"github.com/dmitrijs2005/miarbol/internal/client/notify"
	"github.com/dmitrijs2005/miarbol/internal/client/output"
)

func (a *App) Orders(ctx context.Context, args []string) error {
	var orders []models.WorkOrder
	if len(args) > 0 {
		o, err := a.features.GetWorkOrder(ctx, models.ID(args[0]))
		if err != nil {
			return a.fail(ctx, "Error al cargar la orden", err)
		}
		orders = []models.WorkOrder{*o}
	} else {
		list, err := a.features.ListWorkOrders(ctx)
		if err != nil {
			return a.fail(ctx, "Error al cargar las órdenes", err)
		}
		orders = list
	}

	t := output.Table{Headers: []string{"ID", "ÁRBOL", "PLANTADOR", "VIVERO", "ESTADO", "CREADA"}}
	for _, o := range orders {
		t.Rows = append(t.Rows, []string{string(o.ID), string(o.TreeID), string(o.PlanterID), string(o.ViveroID), o.Status, formatTime(o.CreatedAt)})
	}
	return a.printer.Print(orders, t)
}

func (a *App) Catalog(ctx context.Context, _ []string) error {
	list, err := a.features.ListAvailableTrees(ctx)
	if err != nil {
		return a.fail(ctx, "Error al cargar el catálogo", err)
	}

	t := output.Table{Headers: []string{"ID", "ESPECIE", "PAÍS", "PRECIO", "STOCK"}}
	for _, at := range list {
		t.Rows = append(t.Rows, []string{string(at.ID), at.Species, at.Country, formatMoney(at.Price), strconv.Itoa(at.Stock)})
	}
	return a.printer.Print(list, t)
}

func (a *App) Projects(ctx context.Context, _ []string) error {
	list, err := a.features.ListCollaborativeTrees(ctx)
	if err != nil {
		return a.fail(ctx, "Error al cargar los proyectos", err)
	}

	t := output.Table{Headers: []string{"ID", "NOMBRE", "PAÍS", "META", "RECAUDADO", "PARTICIPANTES", "ESTADO"}}
	for _, p := range list {
		t.Rows = append(t.Rows, []string{
			string(p.ID), p.Name, p.Country, formatMoney(p.GoalAmount), formatMoney(p.RaisedAmount), strconv.Itoa(p.Participants), p.Status,
		})
	}
	return a.printer.Print(list, t)
}

func (a *App) Join(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return a.usageError("join")
	}

	var amount float64
	var err error
	if len(args) == 2 {
		amount, err = strconv.ParseFloat(args[1], 64)
		if err != nil || amount <= 0 {
			printlnFn("Monto inválido:", args[1])
			return errUsage
		}
	} else if amount, err = GetFloat(a.reader, "Monto a aportar", a.out); err != nil {
		return err
	}

	if err := a.features.JoinCollaborativeTree(ctx, models.ID(args[0]), models.JoinProjectInput{Amount: amount}); err != nil {
		return a.fail(ctx, "Error al unirse al proyecto", err)
	}
	a.notifier.Notify(ctx, notify.Notification{Level: notify.LevelSuccess, Title: "Te uniste al proyecto", Description: args[0]})
	return nil
}

func (a *App) Ratings(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usageError("ratings")
	}
	list, err := a.features.ListPlanterRatings(ctx, models.ID(args[0]))
	if err != nil {
		return a.fail(ctx, "Error al cargar las calificaciones", err)
	}

	t := output.Table{Headers: []string{"ID", "USUARIO", "PUNTAJE", "COMENTARIO", "FECHA"}}
	for _, r := range list {
		t.Rows = append(t.Rows, []string{string(r.ID), string(r.UserID), strconv.Itoa(r.Score), firstLine(r.Comment), formatTime(r.CreatedAt)})
	}
	return a.printer.Print(list, t)
}

func (a *App) Rate(ctx context.Context, _ []string) error {
	planter, err := getSimpleText(a.reader, "ID del plantador", a.out)
	if err != nil {
		return err
	}
	scoreText, err := getSimpleText(a.reader, "Puntaje (1-5)", a.out)
	if err != nil {
		return err
	}
	comment, err := GetMultiline(a.reader, "Comentario", a.out)
	if err != nil {
		return err
	}

	score, _ := strconv.Atoi(scoreText)
	in := models.NewRating{PlanterID: models.ID(planter), Score: score, Comment: comment}
	if err := in.Validate(); err != nil {
		printlnFn("Datos inválidos:", err.Error())
		return err
	}

	if _, err := a.features.CreateRating(ctx, in); err != nil {
		return a.fail(ctx, "Error al calificar", err)
	}
	a.notifier.Notify(ctx, notify.Notification{Level: notify.LevelSuccess, Title: "Calificación enviada"})
	return nil
}

func (a *App) Coupons(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usageError("coupons")
	}
	list, err := a.features.ListRaffleCoupons(ctx, models.ID(args[0]))
	if err != nil {
		return a.fail(ctx, "Error al cargar los cupones", err)
	}

	t := output.Table{Headers: []string{"ID", "CÓDIGO", "GANADOR"}}
	for _, c := range list {
		winner := "no"
		if c.Winner {
			winner = "sí"
		}
		t.Rows = append(t.Rows, []string{string(c.ID), c.Code, winner})
	}
	return a.printer.Print(list, t)
}

func (a *App) Audit(ctx context.Context, _ []string) error {
	list, err := a.features.ListAuditLogs(ctx)
	if err != nil {
		return a.fail(ctx, "Error al cargar la auditoría", err)
	}

	t := output.Table{Headers: []string{"ID", "ACTOR", "ACCIÓN", "ENTIDAD", "FECHA"}}
	for _, l := range list {
		entity := l.Entity
		if l.EntityID != "" {
			entity += "#" + string(l.EntityID)
		}
		t.Rows = append(t.Rows, []string{string(l.ID), l.Actor, l.Action, entity, formatTime(l.CreatedAt)})
	}
	return a.printer.Print(list, t)
}

func (a *App) Moderation(ctx context.Context, _ []string) error {
	list, err := a.features.ListPendingModeration(ctx)
	if err != nil {
		return a.fail(ctx, "Error al cargar la moderación", err)
	}

	t := output.Table{Headers: []string{"ID", "TIPO", "AUTOR", "CONTENIDO"}}
	for _, m := range list {
		t.Rows = append(t.Rows, []string{string(m.ID), m.Kind, m.Author, firstLine(m.Content)})
	}
	return a.printer.Print(list, t)
}

func (a *App) Approve(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usageError("approve")
	}
	if err := a.features.ApproveModeration(ctx, models.ID(args[0])); err != nil {
		return a.fail(ctx, "Error al aprobar", err)
	}
	a.notifier.Notify(ctx, notify.Notification{Level: notify.LevelSuccess, Title: "Contenido aprobado", Description: args[0]})
	return nil
}

func (a *App) Reject(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return a.usageError("reject")
	}
	if err := a.features.RejectModeration(ctx, models.ID(args[0]), joinArgs(args[1:])); err != nil {
		return a.fail(ctx, "Error al rechazar", err)
	}
	a.notifier.Notify(ctx, notify.Notification{Level: notify.LevelSuccess, Title: "Contenido rechazado", Description: args[0]})
	return nil
}

func firstLine(s string) string {
	line, _, cut := strings.Cut(s, "\n")
	if cut {
		return line + " …"
	}
	return line
}
