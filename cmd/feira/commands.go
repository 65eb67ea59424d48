package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"feira/internal/models"
	"feira/internal/repositories"
	"feira/internal/services"
)

func cmdLogin(ctx context.Context, e *env, args []string) error {
	fs := flagSet("login")
	creds := repositories.Credentials{}
	fs.StringVarP(&creds.Email, "email", "e", "", "account email")
	fs.StringVarP(&creds.Password, "password", "p", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := services.Validate(services.NewValidator(), creds); err != nil {
		return err
	}
	sess, account, err := e.auth.Login(ctx, e.role, creds)
	if err != nil {
		return err
	}
	return e.print(map[string]any{"role": sess.Role, "expiresAt": sess.ExpiresAt, "account": account})
}

func cmdLogout(ctx context.Context, e *env, _ []string) error {
	return e.auth.Logout(ctx, e.role)
}

func cmdOrders(ctx context.Context, e *env, args []string) error {
	fs := flagSet("orders")
	accepted := fs.Bool("accepted", false, "courier: list accepted orders instead of available ones")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var (
		views []services.OrderView
		err   error
	)
	switch {
	case e.role == models.RoleBuyer:
		views, err = e.buyer.MyOrders(ctx)
	case e.role == models.RoleProducer:
		views, err = e.producer.Orders(ctx)
	case *accepted:
		views, err = e.courier.Accepted(ctx)
	default:
		views, err = e.courier.Available(ctx)
	}
	if err != nil {
		return err
	}
	return e.print(views)
}

func cmdOrder(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errArgs
	}
	view, err := e.orderDetails(ctx, args[0])
	if err != nil {
		return err
	}
	return e.print(view)
}

func (e *env) orderDetails(ctx context.Context, id string) (*services.OrderView, error) {
	switch e.role {
	case models.RoleProducer:
		return e.producer.Details(ctx, id)
	case models.RoleCourier:
		return e.courier.Details(ctx, id)
	default:
		return e.buyer.Details(ctx, id)
	}
}

func cmdAccept(ctx context.Context, e *env, args []string) error {
	if err := e.requireRole(models.RoleCourier); err != nil {
		return err
	}
	if len(args) != 1 {
		return errArgs
	}
	view, err := e.courier.Accept(ctx, args[0])
	if err != nil {
		return err
	}
	return e.print(view)
}

func cmdStatus(ctx context.Context, e *env, args []string) error {
	if err := e.requireRole(models.RoleCourier); err != nil {
		return err
	}
	if len(args) != 2 {
		return errArgs
	}
	if err := e.courier.UpdateStatus(ctx, args[0], models.NormalizeStatus(args[1])); err != nil {
		return err
	}
	return cmdOrder(ctx, e, args[:1])
}

func cmdAdvance(ctx context.Context, e *env, args []string) error {
	if err := e.requireRole(models.RoleProducer); err != nil {
		return err
	}
	if len(args) != 1 {
		return errArgs
	}
	view, err := e.producer.Details(ctx, args[0])
	if err != nil {
		return err
	}
	next, ok := e.producer.NextStatus(view.Status)
	if !ok {
		return fmt.Errorf("order %s is %s and cannot be advanced", view.ID, view.StatusLabel)
	}
	if err := e.producer.Advance(ctx, view.ID, next); err != nil {
		return err
	}
	return cmdOrder(ctx, e, args)
}

func cmdCancel(ctx context.Context, e *env, args []string) error {
	if err := e.requireRole(models.RoleProducer); err != nil {
		return err
	}
	if len(args) != 1 {
		return errArgs
	}
	if err := e.producer.Cancel(ctx, args[0]); err != nil {
		return err
	}
	return cmdOrder(ctx, e, args)
}

func cmdHistory(ctx context.Context, e *env, args []string) error {
	if err := e.requireRole(models.RoleCourier); err != nil {
		return err
	}
	fs := flagSet("history")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 10, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := e.courier.History(ctx, *page, *limit)
	if err != nil {
		return err
	}
	return e.print(p)
}

func cmdEarnings(ctx context.Context, e *env, args []string) error {
	if err := e.requireRole(models.RoleCourier); err != nil {
		return err
	}
	fs := flagSet("earnings")
	period := fs.String("period", string(models.PeriodWeek), "today, week or month")
	if err := fs.Parse(args); err != nil {
		return err
	}
	earnings, err := e.courier.Earnings(ctx, *period)
	if err != nil {
		return err
	}
	return e.print(earnings)
}

// reviewForm collects the rating and comment. Missing values are prompted
// for on the input stream; an empty rating abandons the form.
func (e *env) reviewForm(rating int, comment string, ratingSet bool) (int, string, bool) {
	if ratingSet {
		return rating, comment, true
	}
	scanner := bufio.NewScanner(e.in)
	fmt.Fprint(e.out, "Nota (1-5): ")
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) == "" {
		return 0, "", false
	}
	n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		n = 0
	}
	if comment == "" {
		fmt.Fprint(e.out, "Comentário (opcional): ")
		if scanner.Scan() {
			comment = scanner.Text()
		}
	}
	return n, comment, true
}

func cmdReview(ctx context.Context, e *env, args []string) error {
	if err := e.requireRole(models.RoleBuyer); err != nil {
		return err
	}
	fs := flagSet("review")
	rating := fs.Int("rating", 0, "1 to 5")
	comment := fs.String("comment", "", "optional comment")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errArgs
	}

	view, err := e.buyer.Details(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	item, ok := view.Item(fs.Arg(1))
	if !ok {
		return fmt.Errorf("order %s has no item %s", view.ID, fs.Arg(1))
	}
	if !services.CanReview(view.Order, *item) {
		return fmt.Errorf("item %s cannot be reviewed", item.ID)
	}

	forms := e.reviewForms
	ticket := forms.Open()
	go func() {
		n, text, done := e.reviewForm(*rating, *comment, fs.Changed("rating"))
		if !done {
			forms.Cancel(ticket)
			return
		}
		itemID := item.ID
		_ = forms.Deliver(ticket, models.ReviewInput{ProductID: item.ProductID, Rating: n, Comment: text, OrderItemID: &itemID})
	}()

	input, err := forms.Await(ctx, ticket)
	if err != nil {
		return err
	}
	review, err := e.reviews.Submit(ctx, input)
	if err != nil {
		return err
	}
	return e.print(review)
}

// pickLocation plays the map screen: it returns the point from the flags, or
// asks for an address on the input stream. An empty answer backs out.
func (e *env) pickLocation(ticket string, loc models.Location) {
	if strings.TrimSpace(loc.Address) == "" {
		scanner := bufio.NewScanner(e.in)
		fmt.Fprint(e.out, "Endereço de entrega: ")
		if !scanner.Scan() || strings.TrimSpace(scanner.Text()) == "" {
			e.locations.Cancel(ticket)
			return
		}
		loc.Address = strings.TrimSpace(scanner.Text())
	}
	_ = e.locations.Deliver(ticket, loc)
}

func cmdEstimate(ctx context.Context, e *env, args []string) error {
	fs := flagSet("estimate")
	var picked models.Location
	fs.StringVar(&picked.Address, "address", "", "delivery address")
	fs.Float64Var(&picked.Latitude, "lat", 0, "latitude of the picked point")
	fs.Float64Var(&picked.Longitude, "lng", 0, "longitude of the picked point")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ticket := e.locations.Open()
	go e.pickLocation(ticket, picked)
	loc, err := e.locations.Await(ctx, ticket)
	if err != nil {
		return err
	}

	est := e.est.Estimate(loc.Address)
	return e.print(map[string]any{
		"location": loc,
		"fee":      est.Fee,
		"eta":      est.Window(),
		"source":   est.Source,
	})
}

func cmdReviews(ctx context.Context, e *env, args []string) error {
	fs := flagSet("reviews")
	product := fs.String("product", "", "list a product's reviews")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var (
		list []models.Review
		err  error
	)
	if *product != "" {
		list, err = e.reviews.ProductReviews(ctx, *product)
	} else {
		list, err = e.reviews.MyReviews(ctx)
	}
	if err != nil {
		return err
	}
	return e.print(list)
}

func cmdNotifications(ctx context.Context, e *env, _ []string) error {
	list, err := e.notifications.List(ctx)
	if err != nil {
		return err
	}
	return e.print(list)
}

func cmdRead(ctx context.Context, e *env, args []string) error {
	fs := flagSet("read")
	all := fs.Bool("all", false, "mark every notification read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *all {
		return e.notifications.MarkAllRead(ctx)
	}
	if fs.NArg() != 1 {
		return errArgs
	}
	return e.notifications.MarkRead(ctx, fs.Arg(0))
}

func cmdDelete(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errArgs
	}
	list, err := e.notifications.List(ctx)
	if err != nil {
		return err
	}
	for _, n := range list {
		if n.ID != args[0] {
			continue
		}
		if _, err := e.notifications.Delete(ctx, n); err != nil {
			return err
		}
		if err := e.queue.Flush(ctx); err != nil {
			return err
		}
		job, err := e.notifications.DeleteStatus(ctx, n.ID)
		if err != nil {
			return err
		}
		return e.print(job)
	}
	return fmt.Errorf("notification %s not found", args[0])
}

func cmdPush(ctx context.Context, e *env, args []string) error {
	fs := flagSet("push")
	fs.StringVar(&e.messaging.token, "token", "", "device push token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := e.push.Register(ctx); err != nil {
		return err
	}
	if err := e.queue.Flush(ctx); err != nil {
		return err
	}
	return e.print(map[string]any{"state": e.push.State(ctx), "token": e.push.Token(), "platform": e.platform})
}

func cmdSync(ctx context.Context, e *env, _ []string) error {
	if err := e.queue.Flush(ctx); err != nil {
		return err
	}
	return e.print(map[string]string{"status": "flushed"})
}
