package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/RiyaSaju106/QuickIT/internal/domain/order"
	"github.com/RiyaSaju106/QuickIT/internal/store"
	"github.com/RiyaSaju106/QuickIT/pkg/monitor"
)

// shell is the interactive command loop. It is a thin view over the store:
// every command maps to one store operation and prints its outcome.
type shell struct {
	store *store.Store
	probe *monitor.Monitor
	lg    *zap.Logger

	in  io.Reader
	out io.Writer

	// lines carries input read by the single reader goroutine; all reads,
	// including interactive prompts, go through it.
	lines chan string
}

func newShell(st *store.Store, probe *monitor.Monitor, lg *zap.Logger) *shell {
	return &shell{
		store: st,
		probe: probe,
		lg:    lg,
		in:    os.Stdin,
		out:   os.Stdout,
	}
}

// run reads commands until EOF, "quit", or context cancellation. Input is
// read on its own goroutine so a cancelled context does not leave the loop
// blocked on stdin.
func (s *shell) run(ctx context.Context) error {
	fmt.Fprintln(s.out, "QuickIT grocery client. Type 'help' for commands.")

	s.lines = make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(s.lines)
		sc := bufio.NewScanner(s.in)
		for sc.Scan() {
			s.lines <- sc.Text()
		}
		scanErr <- sc.Err()
	}()

	for {
		s.prompt()
		line, ok := s.readLine(ctx)
		if !ok {
			select {
			case err := <-scanErr:
				if err != nil {
					return errors.Wrap(err, "read input")
				}
			default:
			}
			fmt.Fprintln(s.out)
			return nil
		}
		if quit := s.dispatch(ctx, line); quit {
			return nil
		}
	}
}

// readLine waits for the next input line. ok is false on EOF or context
// cancellation.
func (s *shell) readLine(ctx context.Context) (line string, ok bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok = <-s.lines:
		return line, ok
	}
}

func (s *shell) prompt() {
	marker := ""
	if !s.probe.Online() {
		marker = " [offline]"
	}
	fmt.Fprintf(s.out, "quickit%s> ", marker)
}

// dispatch runs one command line. It returns true when the shell should exit.
func (s *shell) dispatch(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		s.printHelp()
	case "products":
		s.printProducts()
	case "cart":
		s.printCart()
	case "add":
		s.cmdAdd(ctx, args)
	case "rm":
		s.cmdRemove(ctx, args)
	case "clear":
		s.store.Clear(ctx)
		fmt.Fprintln(s.out, "Cart cleared.")
	case "login":
		s.cmdLogin(ctx, args)
	case "register":
		s.cmdRegister(ctx, args)
	case "logout":
		s.store.Logout(ctx)
		fmt.Fprintln(s.out, "Logged out.")
	case "order":
		s.cmdOrder(ctx)
	case "status", "whoami":
		s.printStatus()
	case "refresh":
		if err := s.store.RefreshCatalog(ctx); err != nil {
			fmt.Fprintf(s.out, "Catalog refresh failed: %v\n", err)
			return false
		}
		fmt.Fprintf(s.out, "Catalog refreshed: %d products.\n", len(s.store.Products()))
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command %q. Type 'help'.\n", cmd)
	}
	return false
}

func (s *shell) printHelp() {
	fmt.Fprint(s.out, `Commands:
  products                        list the catalog
  cart                            show the cart with totals
  add <product-id>                add one unit to the cart
  rm <product-id> [all]           remove one unit, or the whole line
  clear                           empty the cart
  login <email> <password>        sign in
  register <name> <email> <pass>  create an account
  logout                          sign out
  order                           place an order from the cart
  refresh                         re-fetch the catalog
  status                          session and connectivity status
  quit                            exit
`)
}

func (s *shell) printProducts() {
	products := s.store.Products()
	if len(products) == 0 {
		fmt.Fprintln(s.out, "Catalog is empty. Try 'refresh'.")
		return
	}
	for _, p := range products {
		fmt.Fprintf(s.out, "  %-26s %-22s %8s  %s\n", p.ID, p.Name, p.Price.StringFixed(2), p.Category)
	}
}

func (s *shell) printCart() {
	items := s.store.Items()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "Cart is empty.")
		return
	}
	catalog := s.store.Catalog()
	for _, line := range items.Lines() {
		name := line.ProductID
		if p, ok := catalog.Lookup(line.ProductID); ok {
			name = p.Name
		}
		fmt.Fprintf(s.out, "  %3d x %s\n", line.Quantity, name)
	}
	fees := order.ComputeFees(items.TotalAmount(catalog))
	fmt.Fprintf(s.out, "Subtotal: %s  Delivery: %s  Platform: %s  GST: %s  Total: %s\n",
		fees.Subtotal.StringFixed(2),
		fees.DeliveryFee.StringFixed(2),
		fees.PlatformFee.StringFixed(2),
		fees.GST.StringFixed(2),
		fees.Total.StringFixed(2),
	)
}

func (s *shell) cmdAdd(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: add <product-id>")
		return
	}
	s.store.AddItem(ctx, args[0])
	fmt.Fprintf(s.out, "Added %s. Cart has %d items.\n", args[0], s.store.TotalItems())
}

func (s *shell) cmdRemove(ctx context.Context, args []string) {
	if len(args) < 1 || len(args) > 2 || (len(args) == 2 && args[1] != "all") {
		fmt.Fprintln(s.out, "Usage: rm <product-id> [all]")
		return
	}
	removeAll := len(args) == 2
	s.store.RemoveItem(ctx, args[0], removeAll)
	fmt.Fprintf(s.out, "Cart has %d items.\n", s.store.TotalItems())
}

func (s *shell) cmdLogin(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "Usage: login <email> <password>")
		return
	}
	if err := s.store.Login(ctx, args[0], args[1]); err != nil {
		fmt.Fprintf(s.out, "Login failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Logged in as %s.\n", args[0])
}

func (s *shell) cmdRegister(ctx context.Context, args []string) {
	if len(args) < 3 || len(args) > 4 {
		fmt.Fprintln(s.out, "Usage: register <name> <email> <password> [phone]")
		return
	}
	phone := ""
	if len(args) == 4 {
		phone = args[3]
	}
	if err := s.store.Register(ctx, args[0], args[1], args[2], phone); err != nil {
		fmt.Fprintf(s.out, "Registration failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Account created.")
}

// cmdOrder prompts for the delivery address and payment method, then places
// the order from the current cart.
func (s *shell) cmdOrder(ctx context.Context) {
	if !s.store.Authenticated() {
		fmt.Fprintln(s.out, "Log in before placing an order.")
		return
	}
	if s.store.TotalItems() == 0 {
		fmt.Fprintln(s.out, "Cart is empty.")
		return
	}

	ask := func(label string) string {
		fmt.Fprintf(s.out, "%s: ", label)
		line, _ := s.readLine(ctx)
		return strings.TrimSpace(line)
	}

	addr := order.Address{
		FullName: ask("Full name"),
		Street:   ask("Street"),
		City:     ask("City"),
		Pincode:  ask("Pincode"),
		Phone:    ask("Phone"),
	}
	payment := ask("Payment method (cod/card)")
	notes := ask("Notes (optional)")

	res, err := s.store.PlaceOrder(ctx, addr, payment, notes)
	if err != nil {
		var verr *order.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(s.out, "Order rejected: %v\n", verr)
			return
		}
		fmt.Fprintf(s.out, "Order failed: %v\n", err)
		return
	}
	if res.Dropped > 0 {
		fmt.Fprintf(s.out, "Note: %d unavailable items were left out of the order.\n", res.Dropped)
	}
	fmt.Fprintf(s.out, "Order %s placed, status %s, total %s.\n",
		res.Order.ID, res.Order.Status, res.Order.Total.StringFixed(2))
}

func (s *shell) printStatus() {
	if user := s.store.CurrentUser(); user != nil {
		fmt.Fprintf(s.out, "Logged in as %s <%s>.\n", user.Name, user.Email)
	} else if s.store.Authenticated() {
		fmt.Fprintln(s.out, "Session active.")
	} else {
		fmt.Fprintln(s.out, "Not logged in.")
	}
	if s.probe.Online() {
		fmt.Fprintln(s.out, "Backend: online.")
	} else {
		fmt.Fprintf(s.out, "Backend: offline (%v).\n", s.probe.LastError())
	}
	fmt.Fprintf(s.out, "Cart: %d items, subtotal %s.\n",
		s.store.TotalItems(), s.store.TotalAmount().StringFixed(2))
}
