package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"canteen-planner/internal/app"
	"canteen-planner/internal/catalog"
	"canteen-planner/internal/config"
	"canteen-planner/internal/logging"
	"canteen-planner/internal/storage"

	"github.com/rs/zerolog/log"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	logging.InitCLI("canteen-planner", os.Getenv("CANTEEN_LOG_LEVEL"))

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "catalog":
		runCatalog(args)
	case "search":
		runSearch(args)
	case "import-menu":
		runImportMenu(args)
	case "export", "plans-cleanup", "activity":
		runWithApp(cmd, args)
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func runCatalog(args []string) {
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	path := fs.String("catalog", os.Getenv("CANTEEN_CATALOG_PATH"), "TOML catalog (built-in menu when empty)")
	veg := fs.Bool("veg", false, "Vegetarian dishes only")
	vegan := fs.Bool("vegan", false, "Vegan dishes only")
	gf := fs.Bool("gf", false, "Gluten-free dishes only")
	_ = fs.Parse(args)

	cat := loadCatalog(*path)
	printDishes(cat.Filter(catalog.FilterState{Veg: *veg, Vegan: *vegan, GlutenFree: *gf}))
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	path := fs.String("catalog", os.Getenv("CANTEEN_CATALOG_PATH"), "TOML catalog (built-in menu when empty)")
	_ = fs.Parse(args)

	cat := loadCatalog(*path)
	printDishes(cat.Search(strings.Join(fs.Args(), " ")))
}

func runImportMenu(args []string) {
	fs := flag.NewFlagSet("import-menu", flag.ExitOnError)
	out := fs.String("out", "", "Write the TOML catalog here instead of stdout")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		log.Fatal().Msg("usage: canteen-planner import-menu [-out catalog.toml] <menu.html>")
	}

	in, err := os.Open(fs.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open menu page")
	}
	defer in.Close()

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create output file")
		}
		defer f.Close()
		w = f
	}

	n, err := app.ImportMenuPage(in, w)
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
	log.Info().Int("dishes", n).Msg("menu imported")
}

func runWithApp(cmd string, args []string) {
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	application, db, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize planner")
	}
	defer db.Close()

	switch cmd {
	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		format := fs.String("format", "markdown", "markdown or html")
		_ = fs.Parse(args)

		planID, err := strconv.ParseInt(fs.Arg(0), 10, 64)
		if err != nil {
			log.Fatal().Msg("usage: canteen-planner export [-format html] <plan-id>")
		}
		f, err := storage.ParseFormat(*format)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid format")
		}
		key, err := application.ExportSavedPlan(ctx, planID, f)
		if err != nil {
			log.Fatal().Err(err).Int64("plan_id", planID).Msg("export failed")
		}
		fmt.Println(key)
	case "plans-cleanup":
		fs := flag.NewFlagSet("plans-cleanup", flag.ExitOnError)
		days := fs.Int("days", 30, "Keep records for the last N days")
		_ = fs.Parse(args)

		res, err := application.Cleanup(ctx, *days)
		if err != nil {
			log.Fatal().Err(err).Msg("cleanup failed")
		}
		fmt.Printf("Successfully removed %d saved plans and %d activity records.\n", res.Plans, res.Events)
	case "activity":
		fs := flag.NewFlagSet("activity", flag.ExitOnError)
		days := fs.Int("days", 7, "Report the last N days")
		_ = fs.Parse(args)

		stats, err := application.DailyActivity(ctx, *days)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read activity")
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tPLACED\tREMOVED\tCANCELLED\tSAVED\tKCAL")
		for _, d := range stats {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n", d.Date, d.Placements, d.Removals, d.Cancelled, d.Saves, d.KcalPlaced)
		}
		_ = tw.Flush()
	}
}

func loadCatalog(path string) *catalog.Catalog {
	if path == "" {
		return catalog.Default()
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load catalog")
	}
	return cat
}

func printDishes(dishes []catalog.Dish) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKCAL\tP\tC\tF\tTAGS")
	for _, d := range dishes {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			d.ID, d.Name, d.Kcal, d.Macros.P, d.Macros.C, d.Macros.F, strings.Join(d.Tags, ", "))
	}
	_ = tw.Flush()
}

func printUsage() {
	fmt.Println("Usage: canteen-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  catalog [-veg] [-vegan] [-gf]        List the dish catalog")
	fmt.Println("  search <text>                        Search dishes by name, region or tag")
	fmt.Println("  import-menu [-out file] <menu.html>  Convert a published menu page to a TOML catalog")
	fmt.Println("  export [-format html] <plan-id>      Export a saved plan to the export store")
	fmt.Println("  plans-cleanup [-days N]              Remove old saved plans and activity records")
	fmt.Println("  activity [-days N]                   Show daily planner activity")
}
