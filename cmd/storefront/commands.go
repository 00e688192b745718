package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/apiclient"
	"github.com/angelmondragon/storefront/internal/app"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/env"
)

// EnvPassword is read when -password is not given.
const EnvPassword = "STOREFRONT_PASSWORD"

var errUsage = errors.New("invalid usage")

// stdin feeds catalog -watch.
var stdin io.Reader = os.Stdin

type handler func(ctx context.Context, a *app.App, args []string, out io.Writer) error

type command struct {
	name    string
	summary string
	run     handler
}

var commands = []command{
	{"login", "sign in: -email -password", runLogin},
	{"register", "create an account: -username -email -password", runRegister},
	{"logout", "sign out and forget stored credentials", runLogout},
	{"whoami", "show the signed-in user [-refresh]", runWhoami},
	{"profile", "update the profile: -username -email -avatar <file>", runProfile},
	{"catalog", "browse: -query -genre -platform -sort -order -page -pages -filters -watch", runCatalog},
	{"game", "show one game: <id>", runGame},
	{"cart", "list | add <id> | remove <id> | clear | checkout", runCart},
	{"wishlist", "list | add <id> | remove <id>", runWishlist},
	{"orders", "list past purchases", runOrders},
	{"library", "list | set-status <id> <status>", runLibrary},
	{"admin", "users | delete-user <id> | create-game | update-game <id> | delete-game <id> | rawg-search <query> | rawg-import <rawgId>", runAdmin},
}

func run(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(out)
		if len(args) == 0 {
			return errUsage
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(ctx, a, args[1:], out)
		}
	}
	printUsage(out)
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "usage: storefront <command> [flags]")
	fmt.Fprintln(out)
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %-9s %s\n", cmd.name, cmd.summary)
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func password(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return env.Get(EnvPassword, "")
}

func runLogin(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("login", out)
	email := fs.String("email", "", "account email")
	pass := fs.String("password", "", "account password (default $"+EnvPassword+")")
	if err := parse(fs, args); err != nil {
		return err
	}
	user, err := a.Session.Login(ctx, session.LoginCredentials{Email: *email, Password: password(*pass)})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "signed in as %s <%s>\n", user.Username, user.Email)
	return nil
}

func runRegister(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("register", out)
	username := fs.String("username", "", "display name")
	email := fs.String("email", "", "account email")
	pass := fs.String("password", "", "account password (default $"+EnvPassword+")")
	if err := parse(fs, args); err != nil {
		return err
	}
	user, err := a.Session.Register(ctx, session.RegisterCredentials{
		Username: *username,
		Email:    *email,
		Password: password(*pass),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "welcome, %s\n", user.Username)
	return nil
}

func runLogout(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	if err := a.Session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "signed out")
	return nil
}

func runWhoami(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("whoami", out)
	refresh := fs.Bool("refresh", false, "revalidate the stored session with the backend")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *refresh {
		a.Session.Restore(ctx)
	}
	state := a.Session.State()
	if !state.IsAuthenticated() || state.User == nil {
		fmt.Fprintln(out, "not signed in")
		return nil
	}
	user := state.User
	fmt.Fprintf(out, "%s <%s>\nid:   %s\nrole: %s\n", user.Username, user.Email, user.ID, user.Role)

	claims, err := auth.InspectAccessToken(a.Credentials.AccessToken(ctx))
	if err != nil {
		fmt.Fprintln(out, "token: unreadable")
		return nil
	}
	now := time.Now()
	switch left, ok := claims.ExpiresIn(now); {
	case !ok:
		fmt.Fprintln(out, "token: no expiry")
	case claims.Expired(now):
		fmt.Fprintln(out, "token: expired, the next request will refresh it")
	default:
		fmt.Fprintf(out, "token: expires in %s\n", left.Round(time.Second))
	}
	return nil
}

func runProfile(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("profile", out)
	username := fs.String("username", "", "new display name")
	email := fs.String("email", "", "new email")
	avatar := fs.String("avatar", "", "path to a new avatar image")
	if err := parse(fs, args); err != nil {
		return err
	}
	update := session.ProfileUpdate{Username: *username, Email: *email}
	if *avatar != "" {
		file, err := readUpload("avatar", *avatar)
		if err != nil {
			return err
		}
		update.Avatar = &file
	}
	user, err := a.Session.UpdateProfile(ctx, update)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "profile updated: %s <%s>\n", user.Username, user.Email)
	return nil
}

func readUpload(field, path string) (apiclient.File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return apiclient.File{}, fmt.Errorf("read %s: %w", field, err)
	}
	return apiclient.File{
		Field:       field,
		Name:        filepath.Base(path),
		ContentType: http.DetectContentType(content),
		Content:     content,
	}, nil
}

func runCatalog(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlagSet("catalog", out)
	query := fs.String("query", "", "search text")
	genre := fs.String("genre", "", "genre filter")
	platform := fs.String("platform", "", "platform filter")
	sortBy := fs.String("sort", "", "sort field: title|price|releaseDate")
	order := fs.String("order", "", "sort order: asc|desc")
	page := fs.Int("page", 0, "page to open")
	pages := fs.Int("pages", 1, "pages to load, appending each to the list")
	filters := fs.Bool("filters", false, "list the available genres and platforms instead")
	watch := fs.Bool("watch", false, "read search text from stdin line by line, refetching once typing settles")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *filters {
		options, err := a.Games.Filters(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "genres:    %s\n", strings.Join(options.Genres, ", "))
		fmt.Fprintf(out, "platforms: %s\n", strings.Join(options.Platforms, ", "))
		return nil
	}

	if err := applyCatalogFlags(a.Controls, *query, *genre, *platform, *sortBy, *order, *page); err != nil {
		return err
	}
	if *watch {
		return watchCatalog(ctx, a, stdin, out)
	}
	if _, err := a.Feed.Sync(ctx); err != nil {
		return err
	}
	for i := 1; i < *pages; i++ {
		more, err := a.Feed.NextPage(ctx)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	state := a.Feed.State()
	printGames(out, state.Games)
	fmt.Fprintf(out, "\npage %d of %d, %d games (?%s)\n",
		state.Pagination.Page, state.Pagination.Pages, state.Pagination.Total, a.Location.String())
	return nil
}

// watchCatalog treats each input line as the search box contents. Writes go
// through the debounced controls, and the feed refetches whenever the
// location changes. Input end flushes a pending search.
func watchCatalog(ctx context.Context, a *app.App, in io.Reader, out io.Writer) error {
	var mu sync.Mutex
	render := func(state catalog.FeedState) {
		mu.Lock()
		defer mu.Unlock()
		if state.Err != nil {
			fmt.Fprintf(out, "error: %v\n", state.Err)
			return
		}
		printGames(out, state.Games)
		fmt.Fprintf(out, "-- ?%s\n", a.Location.String())
	}

	stop := a.Feed.Watch(ctx)
	defer stop()
	if _, err := a.Feed.Sync(ctx); err != nil {
		return err
	}
	render(a.Feed.State())

	unsubscribe := a.Feed.Subscribe(func(state catalog.FeedState) {
		if !state.Loading {
			render(state)
		}
	})
	defer unsubscribe()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		a.Controls.SetSearch(strings.TrimSpace(scanner.Text()))
	}
	a.Controls.FlushSearch()
	return scanner.Err()
}

// applyCatalogFlags replays the flags through the controls in the order a
// shopper would: search and facets first, since they reset the page.
func applyCatalogFlags(c *catalog.Controls, query, genre, platform, sortBy, order string, page int) error {
	if query != "" {
		c.SetSearch(query)
		c.FlushSearch()
	}
	if genre != "" {
		if err := c.SetFilter(catalog.FilterGenre, genre); err != nil {
			return err
		}
	}
	if platform != "" {
		if err := c.SetFilter(catalog.FilterPlatform, platform); err != nil {
			return err
		}
	}
	if sortBy != "" || order != "" {
		current := c.State()
		field, direction := current.SortBy, current.Order
		if sortBy != "" {
			parsed, err := enums.ParseSortField(sortBy)
			if err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			field = parsed
		}
		if order != "" {
			parsed, err := enums.ParseSortOrder(order)
			if err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			direction = parsed
		}
		if err := c.SetSort(field, direction); err != nil {
			return err
		}
	}
	if page > 0 {
		c.SetPage(page)
	}
	return nil
}

func runGame(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: game <id>", errUsage)
	}
	game, err := a.Games.Game(ctx, args[0])
	if err != nil {
		return err
	}
	printGame(out, game)
	return nil
}
