package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/angelmondragon/storefront/internal/admin"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/games"
	"github.com/angelmondragon/storefront/internal/library"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/pkg/money"
)

func table(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func printGames(out io.Writer, list []games.Game) {
	if len(list) == 0 {
		fmt.Fprintln(out, "no games")
		return
	}
	w := table(out)
	fmt.Fprintln(w, "ID\tTITLE\tPLATFORM\tGENRE\tPRICE")
	for _, g := range list {
		price := g.DisplayPrice()
		if g.IsOffer && g.OfferPrice != nil {
			price += " (offer)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", g.ID, g.Title, g.Platform, g.Genre, price)
	}
	_ = w.Flush()
}

func printGame(out io.Writer, g games.Game) {
	fmt.Fprintf(out, "%s (%s)\n", g.Title, g.ID)
	fmt.Fprintf(out, "price:     %s\n", g.DisplayPrice())
	fmt.Fprintf(out, "platform:  %s\ngenre:     %s\ntype:      %s\n", g.Platform, g.Genre, g.Type)
	fmt.Fprintf(out, "released:  %s\ndeveloper: %s\npublisher: %s\n", g.ReleaseDate, g.Developer, g.Publisher)
	if g.MetacriticScore != nil {
		fmt.Fprintf(out, "metacritic: %d\n", *g.MetacriticScore)
	}
	if g.Description != "" {
		fmt.Fprintf(out, "\n%s\n", g.Description)
	}
}

func printCart(out io.Writer, state cart.State) {
	if state.Count() == 0 {
		fmt.Fprintln(out, "cart is empty")
		return
	}
	w := table(out)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE")
	currency := ""
	for _, item := range state.Items {
		currency = item.Currency
		fmt.Fprintf(w, "%s\t%s\t%s\n", item.ID, item.Title, money.Format(item.UnitPrice, item.Currency))
	}
	fmt.Fprintf(w, "\t%d items\t%s\n", state.Count(), money.Format(state.Total(), currency))
	_ = w.Flush()
}

func printOrders(out io.Writer, list []orders.Order) {
	if len(list) == 0 {
		fmt.Fprintln(out, "no orders yet")
		return
	}
	w := table(out)
	fmt.Fprintln(w, "ORDER\tDATE\tTOTAL\tGAMES")
	for _, o := range list {
		titles := make([]string, 0, len(o.Items))
		for _, item := range o.Items {
			titles = append(titles, item.Title)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.ID, o.CreatedAt, o.DisplayTotal(), strings.Join(titles, ", "))
	}
	_ = w.Flush()
}

func printLibrary(out io.Writer, items []library.Item) {
	if len(items) == 0 {
		fmt.Fprintln(out, "library is empty")
		return
	}
	w := table(out)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tADDED")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.ID, item.Game.Title, item.Status, item.AddedAt)
	}
	_ = w.Flush()
}

func printUsers(out io.Writer, result admin.UserPage) {
	w := table(out)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE")
	for _, u := range result.Users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role)
	}
	_ = w.Flush()
	fmt.Fprintf(out, "\npage %d of %d, %d users\n", result.Pagination.Page, result.Pagination.Pages, result.Pagination.Total)
}

func printRAWG(out io.Writer, hits []admin.RAWGGame) {
	if len(hits) == 0 {
		fmt.Fprintln(out, "no matches")
		return
	}
	w := table(out)
	fmt.Fprintln(w, "RAWG ID\tNAME\tRELEASED\tRATING")
	for _, h := range hits {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.1f\n", h.ID, h.Name, h.Released, h.Rating)
	}
	_ = w.Flush()
}
