package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront/internal/admin"
	"github.com/angelmondragon/storefront/internal/app"
	"github.com/angelmondragon/storefront/internal/wishlist"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

func subcommand(args []string, fallback string) (string, []string) {
	if len(args) == 0 {
		return fallback, nil
	}
	return args[0], args[1:]
}

func oneID(name string, args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: %s <id>", errUsage, name)
	}
	return args[0], nil
}

func runCart(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	sub, rest := subcommand(args, "list")
	switch sub {
	case "list":
	case "add":
		id, err := oneID("cart add", rest)
		if err != nil {
			return err
		}
		game, err := a.Games.Game(ctx, id)
		if err != nil {
			return err
		}
		a.Cart.Add(ctx, game)
	case "remove":
		id, err := oneID("cart remove", rest)
		if err != nil {
			return err
		}
		a.Cart.Remove(ctx, id)
	case "clear":
		a.Cart.Clear(ctx)
	case "checkout":
		confirmation, err := a.Cart.Checkout(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "order %s confirmed\n", confirmation.OrderID)
		return nil
	default:
		return fmt.Errorf("%w: unknown cart command %q", errUsage, sub)
	}
	printCart(out, a.Cart.State())
	return nil
}

func runWishlist(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	a.SyncWishlist(ctx)
	if !a.Wishlist.State().Authenticated {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, wishlist.NoticeLoginRequired)
	}
	sub, rest := subcommand(args, "list")
	switch sub {
	case "list":
	case "add":
		id, err := oneID("wishlist add", rest)
		if err != nil {
			return err
		}
		game, err := a.Games.Game(ctx, id)
		if err != nil {
			return err
		}
		a.Wishlist.Add(ctx, game)
	case "remove":
		id, err := oneID("wishlist remove", rest)
		if err != nil {
			return err
		}
		a.Wishlist.Remove(ctx, id)
	default:
		return fmt.Errorf("%w: unknown wishlist command %q", errUsage, sub)
	}
	printGames(out, a.Wishlist.Items())
	return nil
}

func runOrders(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	list, err := a.Orders.List(ctx)
	if err != nil {
		return err
	}
	printOrders(out, list)
	return nil
}

func runLibrary(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	sub, rest := subcommand(args, "list")
	switch sub {
	case "list":
		items, err := a.Library.List(ctx)
		if err != nil {
			return err
		}
		printLibrary(out, items)
		return nil
	case "set-status":
		if len(rest) != 2 {
			return fmt.Errorf("%w: library set-status <id> <playing|completed|backlog|dropped>", errUsage)
		}
		status, err := enums.ParseLibraryStatus(rest[1])
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		item, err := a.Library.UpdateStatus(ctx, rest[0], status)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s is now %s\n", item.Game.Title, item.Status)
		return nil
	default:
		return fmt.Errorf("%w: unknown library command %q", errUsage, sub)
	}
}

func runAdmin(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	sub, rest := subcommand(args, "")
	switch sub {
	case "users":
		fs := newFlagSet("admin users", out)
		page := fs.Int("page", 1, "page")
		limit := fs.Int("limit", admin.DefaultUsersLimit, "users per page")
		if err := parse(fs, rest); err != nil {
			return err
		}
		result, err := a.Admin.Users(ctx, *page, *limit)
		if err != nil {
			return err
		}
		printUsers(out, result)
		return nil
	case "delete-user":
		id, err := oneID("admin delete-user", rest)
		if err != nil {
			return err
		}
		if err := a.Admin.DeleteUser(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(out, "user %s deleted\n", id)
		return nil
	case "create-game":
		form, _, err := parseGameForm("admin create-game", rest, out)
		if err != nil {
			return err
		}
		game, err := a.Admin.CreateGame(ctx, form)
		if err != nil {
			return err
		}
		printGame(out, game)
		return nil
	case "update-game":
		form, positional, err := parseGameForm("admin update-game", rest, out)
		if err != nil {
			return err
		}
		id, err := oneID("admin update-game", positional)
		if err != nil {
			return err
		}
		game, err := a.Admin.UpdateGame(ctx, id, form)
		if err != nil {
			return err
		}
		printGame(out, game)
		return nil
	case "delete-game":
		id, err := oneID("admin delete-game", rest)
		if err != nil {
			return err
		}
		if err := a.Admin.DeleteGame(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(out, "game %s deleted\n", id)
		return nil
	case "rawg-search":
		if len(rest) == 0 {
			return fmt.Errorf("%w: admin rawg-search <query>", errUsage)
		}
		hits, err := a.Admin.SearchRAWG(ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		printRAWG(out, hits)
		return nil
	case "rawg-import":
		fs := newFlagSet("admin rawg-import", out)
		steam := fs.Int64("steam", 0, "Steam app id to link")
		if err := parse(fs, rest); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("%w: admin rawg-import [-steam id] <rawgId>", errUsage)
		}
		rawgID, err := strconv.ParseInt(fs.Arg(0), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: rawg id must be a number", errUsage)
		}
		var steamID *int64
		if *steam > 0 {
			steamID = steam
		}
		game, err := a.Admin.ImportFromRAWG(ctx, rawgID, steamID)
		if err != nil {
			return err
		}
		printGame(out, game)
		return nil
	default:
		return fmt.Errorf("%w: admin users|delete-user|create-game|update-game|delete-game|rawg-search|rawg-import", errUsage)
	}
}

// parseGameForm reads the game fields; the remaining positional args are returned.
func parseGameForm(name string, args []string, out io.Writer) (admin.GameForm, []string, error) {
	fs := newFlagSet(name, out)
	title := fs.String("title", "", "title")
	description := fs.String("description", "", "description")
	price := fs.String("price", "0", "price")
	currency := fs.String("currency", "", "ISO currency code")
	platform := fs.String("platform", "", "platform")
	genre := fs.String("genre", "", "genre")
	kind := fs.String("type", "", "game|dlc|bundle")
	released := fs.String("released", "", "release date (YYYY-MM-DD)")
	developer := fs.String("developer", "", "developer")
	publisher := fs.String("publisher", "", "publisher")
	offer := fs.String("offer-price", "", "discounted price; marks the game as on offer")
	cover := fs.String("cover", "", "path to the cover image")
	if err := parse(fs, args); err != nil {
		return admin.GameForm{}, nil, err
	}

	amount, err := decimal.NewFromString(*price)
	if err != nil {
		return admin.GameForm{}, nil, fmt.Errorf("%w: invalid price %q", errUsage, *price)
	}
	form := admin.GameForm{
		Title:       *title,
		Description: *description,
		Price:       amount,
		Currency:    *currency,
		Platform:    *platform,
		Genre:       *genre,
		ReleaseDate: *released,
		Developer:   *developer,
		Publisher:   *publisher,
	}
	if *kind != "" {
		parsed, err := enums.ParseGameType(*kind)
		if err != nil {
			return admin.GameForm{}, nil, fmt.Errorf("%w: %v", errUsage, err)
		}
		form.Type = parsed
	}
	if *offer != "" {
		offerPrice, err := decimal.NewFromString(*offer)
		if err != nil {
			return admin.GameForm{}, nil, fmt.Errorf("%w: invalid offer price %q", errUsage, *offer)
		}
		form.IsOffer = true
		form.OfferPrice = &offerPrice
	}
	if *cover != "" {
		file, err := readUpload("image", *cover)
		if err != nil {
			return admin.GameForm{}, nil, err
		}
		form.Cover = &file
	}
	return form, fs.Args(), nil
}
