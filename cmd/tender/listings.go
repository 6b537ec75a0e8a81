package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-tender-client/api"
	"github.com/jrsteele09/go-tender-client/internal/utils"
	"github.com/jrsteele09/go-tender-client/report"
)

// listParams parses the paging flags of a list command. Flags left unset
// fall back to what the same command used last time, unless -reset is given.
func listParams(a *app, name string, args []string) (api.ListParams, error) {
	fs := newFlagSet(a, name)
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", api.DefaultPageSize, "page size")
	search := fs.String("search", "", "filter text")
	reset := fs.Bool("reset", false, "forget the remembered page and search")
	if err := fs.Parse(args); err != nil {
		return api.ListParams{}, err
	}

	if *reset {
		a.nav.Clear(name)
	} else if saved, ok := a.nav.Get(name); ok {
		if !isSet(fs, "search") {
			*search = saved.Values["search"]
		}
		if !isSet(fs, "size") {
			*size = positiveOr(saved.Values["size"], *size)
		}
		// a new search starts from the first page
		if !isSet(fs, "page") && *search == saved.Values["search"] {
			*page = positiveOr(saved.Values["page"], *page)
		}
	}

	a.nav.Save(name, map[string]string{
		"page":   strconv.Itoa(*page),
		"size":   strconv.Itoa(*size),
		"search": *search,
	})
	return api.ListParams{Page: *page, PageSize: *size, Search: *search}, nil
}

func positiveOr(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func (a *app) printPage(p api.ListParams, count, pages int) {
	if pages == 0 {
		pages = 1
	}
	line := fmt.Sprintf("page %d of %d, %d records", max(p.Page, 1), pages, count)
	if p.Search != "" {
		line += fmt.Sprintf(" matching %q", p.Search)
	}
	fmt.Fprintln(a.out, line)
}

func runUpdates(ctx context.Context, a *app, args []string) error {
	if err := newFlagSet(a, "updates").Parse(args); err != nil {
		return err
	}
	counts, err := a.api.TodayUpdateCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, report.Title("Updated today"))
	fmt.Fprintln(a.out, report.Table([]string{"projects", "bids", "results"}, [][]string{{
		strconv.Itoa(counts.ProjectCount),
		strconv.Itoa(counts.BidCount),
		strconv.Itoa(counts.BidResultCount),
	}}))
	return nil
}

func runProjects(ctx context.Context, a *app, args []string) error {
	p, err := listParams(a, "projects", args)
	if err != nil {
		return err
	}
	page, err := a.api.ListProjects(ctx, p)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(page.Results))
	for _, pr := range page.Results {
		rows = append(rows, []string{pr.ProjectID.String(), utils.Truncate(pr.Title, 40), pr.DistrictShow, pr.ClassifyShow, pr.TimeShow, pr.OpenTime})
	}
	fmt.Fprintln(a.out, report.Table([]string{"id", "title", "district", "category", "published", "opens"}, rows))
	a.printPage(p, page.Count, page.TotalPages(p.PageSize))
	return nil
}

func runProject(ctx context.Context, a *app, args []string) error {
	id, err := oneArg(a, "project", args)
	if err != nil {
		return err
	}
	detail, err := a.api.GetProject(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, report.Title(detail.Title))
	fmt.Fprintf(a.out, "%s / %s, published %s, opens %s\n",
		utils.FirstNonEmpty(detail.DistrictShow), utils.FirstNonEmpty(detail.ClassifyShow), detail.TimeShow, detail.OpenTime)
	fmt.Fprintln(a.out, sectionTable(detail.BidSections))
	return nil
}

func sectionTable(sections []api.BidSection) string {
	rows := make([][]string, 0, len(sections))
	for _, s := range sections {
		winner := "-"
		if !s.Pending() && s.WinningBidder != "" {
			winner = s.WinningBidder + " " + report.FormatAmount(float64(s.WinningAmount))
		}
		rows = append(rows, []string{s.ID.String(), utils.Truncate(s.SectionName, 40), strconv.Itoa(s.BidSize), report.FormatAmount(float64(s.LotCtlAmt)), s.Status, winner})
	}
	return report.Table([]string{"id", "section", "bids", "control price", "status", "winner"}, rows)
}

func runSections(ctx context.Context, a *app, args []string) error {
	p, err := listParams(a, "sections", args)
	if err != nil {
		return err
	}
	page, err := a.api.ListBidSections(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, sectionTable(page.Results))
	a.printPage(p, page.Count, page.TotalPages(p.PageSize))
	return nil
}

func runBids(ctx context.Context, a *app, args []string) error {
	id, err := oneArg(a, "bids", args)
	if err != nil {
		return err
	}
	bids, err := a.api.GetBids(ctx, id)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(bids))
	for _, b := range bids {
		discount := "-"
		if pct, ok := b.Discount(); ok {
			discount = report.FormatPercent(pct, 2)
		}
		rows = append(rows, []string{b.BidderName, report.FormatAmount(float64(b.BidAmount)), report.FormatAmount(float64(b.LotCtlAmt)), discount})
	}
	fmt.Fprintln(a.out, report.Table([]string{"bidder", "amount", "control price", "discount"}, rows))
	return nil
}

func resultTable(results []api.BidResult) string {
	rows := make([][]string, 0, len(results))
	for i, r := range results {
		section, name := r.SectionID.String(), utils.Truncate(r.SectionName, 36)
		// lower ranks of the same section follow the winner without repeating it
		if i > 0 && r.SameSection(results[i-1]) {
			section, name = "", ""
		}
		rows = append(rows, []string{section, name, strconv.Itoa(r.Rank), r.BidderName, report.FormatAmount(float64(r.WinAmt)), r.OpenTime})
	}
	return report.Table([]string{"section", "name", "rank", "bidder", "amount", "opened"}, rows)
}

func runResults(ctx context.Context, a *app, args []string) error {
	p, err := listParams(a, "results", args)
	if err != nil {
		return err
	}
	page, err := a.api.ListBidResults(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, resultTable(page.Results))
	a.printPage(p, page.Count, page.TotalPages(p.PageSize))
	return nil
}

func runResult(ctx context.Context, a *app, args []string) error {
	id, err := oneArg(a, "result", args)
	if err != nil {
		return err
	}
	results, err := a.api.GetBidResult(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, resultTable(results))
	return nil
}

func runCompanies(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "companies")
	query := fs.String("query", "", "company name or credit code")
	if err := fs.Parse(args); err != nil {
		return err
	}
	companies, err := a.api.SearchCompanies(ctx, *query)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(companies))
	for _, c := range companies {
		rows = append(rows, []string{c.ID.String(), c.Name, c.CorpCode, c.Corp, c.RegAddress, strings.Join(c.Qualifications, "; ")})
	}
	fmt.Fprintln(a.out, report.Table([]string{"id", "name", "credit code", "legal rep", "address", "qualifications"}, rows))
	return nil
}

func runCompanyBids(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "company")
	corp := fs.String("corp", "", "company credit code")
	pageNum := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	page, err := a.api.CompanyBids(ctx, *corp, *pageNum)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(page.Results))
	for _, b := range page.Results {
		rows = append(rows, []string{b.ProjectID.String(), utils.Truncate(b.SectionName, 40), report.FormatAmount(float64(b.BidAmount)), b.BidOpenTime})
	}
	fmt.Fprintln(a.out, report.Table([]string{"project", "section", "amount", "opens"}, rows))
	a.printPage(api.ListParams{Page: *pageNum}, page.Count, page.TotalPages(api.DefaultPageSize))
	return nil
}

func runAchievement(ctx context.Context, a *app, args []string) error {
	id, err := oneArg(a, "achievement", args)
	if err != nil {
		return err
	}
	ach, err := a.api.CompanyAchievement(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, report.Table([]string{"field", "value"}, [][]string{
		{"project", ach.ProjectName},
		{"bidder", ach.BidderName},
		{"amount", report.FormatAmount(float64(ach.WinAmt))},
		{"tender org", ach.TenderOrgName},
		{"area", ach.AreaCode},
		{"published", ach.CreateTime},
	}))
	return nil
}
