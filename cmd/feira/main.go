// Command feira is a terminal client for the marketplace. It drives the same
// SDK the mobile screens use: one signed-in session per role, order lists and
// transitions, reviews and notifications, with best-effort work kept in a
// local sync queue.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"feira/internal/apperr"
	"feira/internal/config"
	"feira/internal/models"

	"github.com/spf13/pflag"
)

var commands = map[string]func(ctx context.Context, e *env, args []string) error{
	"login":         cmdLogin,
	"logout":        cmdLogout,
	"orders":        cmdOrders,
	"order":         cmdOrder,
	"accept":        cmdAccept,
	"status":        cmdStatus,
	"advance":       cmdAdvance,
	"cancel":        cmdCancel,
	"history":       cmdHistory,
	"earnings":      cmdEarnings,
	"estimate":      cmdEstimate,
	"review":        cmdReview,
	"reviews":       cmdReviews,
	"notifications": cmdNotifications,
	"read":          cmdRead,
	"delete":        cmdDelete,
	"push":          cmdPush,
	"sync":          cmdSync,
}

const usage = `usage: feira [--config file] [--role buyer|producer|courier] <command> [args]

commands:
  login --email E --password P      sign the role in
  logout                            forget the role's session
  orders [--accepted]               list the role's orders (couriers: available)
  order ID                          show one order
  accept ID                         courier: take an available order
  status ID STATUS                  courier: move an accepted order
  advance ID                        producer: move to the next status
  cancel ID                         producer: cancel an order
  history [--page N --limit N]      courier: finished deliveries
  earnings [--period P]             courier: today, week or month
  estimate [--address A --lat L --lng L]
                                    delivery fee and time for a picked address
  review ORDER ITEM [--rating N --comment C]
  reviews [--product ID]            buyer: own reviews, or a product's
  notifications                     list notifications
  read [ID|--all]                   mark notifications read
  delete ID                         delete a notification once its order is delivered
  push --token T                    register a device push token
  sync                              retry pending background work
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := pflag.NewFlagSet("feira", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	configFile := fs.StringP("config", "c", os.Getenv("FEIRA_CONFIG"), "path to a config file")
	roleName := fs.StringP("role", "r", string(models.RoleBuyer), "session role")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w\n%s", err, usage)
	}
	if fs.NArg() == 0 {
		fmt.Fprint(out, usage)
		return nil
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		return fmt.Errorf("unknown command %q\n%s", fs.Arg(0), usage)
	}

	role, err := models.ParseRole(*roleName)
	if err != nil {
		return err
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	e, err := newEnv(cfg.Client, role, cfg.Logger(), in, out)
	if err != nil {
		return err
	}
	defer e.close()

	return cmd(ctx, e, fs.Args()[1:])
}

// describe puts the banner message the app would show in front of the
// error detail. Errors from outside the SDK are printed as is.
func describe(err error) string {
	banner := apperr.UserMessage(err)
	var srv *apperr.ServerError
	if banner == apperr.MsgServer && !errors.As(err, &srv) {
		return err.Error()
	}
	if strings.HasPrefix(err.Error(), banner) {
		return err.Error()
	}
	return banner + ": " + err.Error()
}

func (e *env) print(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (e *env) requireRole(roles ...models.Role) error {
	for _, r := range roles {
		if e.role == r {
			return nil
		}
	}
	return fmt.Errorf("command not available for role %s", e.role)
}

var errArgs = errors.New("wrong number of arguments")

func flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
