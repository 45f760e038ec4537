// Command petctl plays the virtual pet from a terminal.
//
// Usage:
//
//	petctl register
//	petctl types
//	petctl leaderboard [limit]
//	petctl status
//	petctl adopt <name> <dog|cat|dragon>
//	petctl act <feed|play|clean>...
//	petctl watch [duration]
//
// The server address and credentials come from PETCTL_URL, PETCTL_USERNAME
// and PETCTL_PASSWORD.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pocketpet/api/internal/client"
	"github.com/pocketpet/api/internal/config"
	"github.com/pocketpet/api/internal/logging"
	"github.com/pocketpet/api/internal/models"
)

var errUsage = errors.New("usage: petctl register|types|leaderboard|status|adopt|act|watch")

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	log := logging.NewWithOutput(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout, log); err != nil {
		log.WithError(err).Fatal("petctl failed")
	}
}

func run(ctx context.Context, cfg *config.ClientConfig, args []string, out io.Writer, log logrus.FieldLogger) error {
	if len(args) == 0 {
		return errUsage
	}
	c, err := client.New(cfg.URL, cfg.Timeout)
	if err != nil {
		return err
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "types":
		return printTypes(ctx, c, out)
	case "leaderboard":
		return printLeaderboard(ctx, c, rest, out)
	case "register", "status", "adopt", "act", "watch":
	default:
		return errUsage
	}

	if err := cfg.RequireCredentials(); err != nil {
		return err
	}
	if cmd == "register" {
		user, err := c.Register(ctx, cfg.Username, cfg.Password)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "registered %s (id %d)\n", user.Username, user.ID)
		return nil
	}

	s, err := c.NewSession(ctx, cfg.Username, cfg.Password, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		if err := s.Close(closeCtx); err != nil {
			log.WithError(err).Warn("logout failed")
		}
	}()

	switch cmd {
	case "status":
		return printStatus(ctx, s, out)
	case "adopt":
		if len(rest) != 2 {
			return errors.New("usage: petctl adopt <name> <dog|cat|dragon>")
		}
		pet, err := s.Adopt(ctx, rest[0], models.PetType(rest[1]))
		if err != nil {
			return err
		}
		printPet(out, pet)
		return nil
	case "act":
		if len(rest) == 0 {
			return errors.New("usage: petctl act <feed|play|clean>...")
		}
		return act(ctx, s, rest, out)
	case "watch":
		d := 5 * cfg.DecayInterval
		if len(rest) > 0 {
			if d, err = time.ParseDuration(rest[0]); err != nil {
				return fmt.Errorf("invalid duration %q: %w", rest[0], err)
			}
		}
		return watch(ctx, s, cfg.DecayInterval, d, out)
	}
	return nil
}

func act(ctx context.Context, s *client.Session, actions []string, out io.Writer) error {
	for _, name := range actions {
		pet, err := s.Do(ctx, name)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		printPet(out, pet)
		drainEvents(s, out)
	}
	return nil
}

// watch runs the local decay ticker for d and reports what happens.
func watch(ctx context.Context, s *client.Session, interval, d time.Duration, out io.Writer) error {
	if _, ok := s.Pet(); !ok {
		return client.ErrNoPet
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	s.StartDecay(ctx, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			pet, _ := s.Pet()
			printPet(out, pet)
			return nil
		case e := <-s.Events():
			printEvent(out, e)
		case <-ticker.C:
			pet, _ := s.Pet()
			printPet(out, pet)
		}
	}
}

func printStatus(ctx context.Context, s *client.Session, out io.Writer) error {
	pet, ok := s.Pet()
	if !ok {
		fmt.Fprintf(out, "%s has no pet yet\n", s.User().Username)
		return nil
	}
	printPet(out, pet)

	st, err := s.Standing(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "rank #%d\n", st.Rank)
	return nil
}

func printTypes(ctx context.Context, c *client.Client, out io.Writer) error {
	types, err := c.PetTypes(ctx)
	if err != nil {
		return err
	}
	for _, t := range types {
		fmt.Fprintf(out, "%s\t%s\n", t.ID, t.DisplayName)
	}
	return nil
}

func printLeaderboard(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	limit := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		limit = n
	}
	entries, err := c.Leaderboard(ctx, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tUSER\tPET\tTYPE\tLEVEL\tXP")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n", e.Rank, e.Username, e.PetName, e.PetType, e.Level, e.XP)
	}
	return tw.Flush()
}

func printPet(out io.Writer, p models.Pet) {
	fmt.Fprintf(out, "%s the %s  lvl %d  xp %d/%d  hunger %d  happiness %d  cleanliness %d\n",
		p.Name, p.Type, p.Level, p.XP, p.XPThreshold(), p.Hunger, p.Happiness, p.Cleanliness)
}

func printEvent(out io.Writer, e client.Event) {
	switch e.Kind {
	case client.EventLevelUp:
		fmt.Fprintf(out, "%s reached level %d!\n", e.Pet.Name, e.Pet.Level)
	case client.EventDistress:
		fmt.Fprintf(out, "%s needs attention!\n", e.Pet.Name)
	}
}

func drainEvents(s *client.Session, out io.Writer) {
	for {
		select {
		case e := <-s.Events():
			printEvent(out, e)
		default:
			return
		}
	}
}
