package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/suran0330/kicholgy-sub001/internal/catalog"
	"github.com/suran0330/kicholgy-sub001/internal/fetch"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the local catalog and the connected Shopify store",
}

var (
	listCategory string
	listSort     string
	listMin      float64
	listMax      float64

	remoteMode       string
	remoteCollection string
	remoteCount      int
	remotePages      int
)

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the local catalog, filtered and sorted",
	RunE: func(cmd *cobra.Command, args []string) error {
		items := catalog.DefaultLocal().All()
		items = catalog.FilterByCategory(items, listCategory)
		items = catalog.FilterByPriceRange(items, listMin, listMax)
		if listSort != "" {
			items = catalog.SortProducts(items, listSort)
		}
		return printJSON(cmd.OutOrStdout(), items)
	},
}

var catalogRemoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Fetch products from the Shopify store",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := fetch.ParseMode(remoteMode)
		if err != nil {
			return err
		}
		o := fetch.New(newShopifyClient(cfg, logger), fetch.Query{
			Mode:       mode,
			Collection: remoteCollection,
			PageSize:   remoteCount,
		}, logger)

		st := o.Load(cmd.Context(), false)
		for i := 1; i < remotePages && st.HasNextPage && st.Error == ""; i++ {
			st = o.LoadMore(cmd.Context())
		}
		if st.Error != "" {
			return fmt.Errorf("%s", st.Error)
		}
		return printJSON(cmd.OutOrStdout(), o.Normalized())
	},
}

func init() {
	catalogListCmd.Flags().StringVar(&listCategory, "category", catalog.CategoryAll, "category to show")
	catalogListCmd.Flags().StringVar(&listSort, "sort", "", "name, price-low, price-high or vendor")
	catalogListCmd.Flags().Float64Var(&listMin, "min", 0, "minimum price")
	catalogListCmd.Flags().Float64Var(&listMax, "max", math.MaxFloat64, "maximum price")

	catalogRemoteCmd.Flags().StringVar(&remoteMode, "mode", string(fetch.ModeAll), "all, featured, recent, bestselling or collection")
	catalogRemoteCmd.Flags().StringVar(&remoteCollection, "collection", "", "collection handle for --mode collection")
	catalogRemoteCmd.Flags().IntVar(&remoteCount, "count", 20, "products per page")
	catalogRemoteCmd.Flags().IntVar(&remotePages, "pages", 1, "pages to load in paged modes")

	catalogCmd.AddCommand(catalogListCmd, catalogRemoteCmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
