package main

import (
	"fmt"
	"os"

	"storefront/internal/app"
	"storefront/internal/csvio"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// withApp runs fn against an application without starting the HTTP server.
func withApp(v *viper.Viper, fn func(a *app.App, log *zap.Logger) error) error {
	e, err := setup(v)
	if err != nil {
		return err
	}
	defer e.close()
	return fn(app.New(e.cfg, e.db, e.log, nil), e.log)
}

func newImportProductsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "import-products <file>",
		Short: "Add the products of a semicolon separated file to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(v, func(a *app.App, log *zap.Logger) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()

				parsed, err := csvio.ReadProducts(f)
				if err != nil {
					return err
				}
				added, err := a.Products.ImportProducts(parsed.Products)
				if err != nil {
					return err
				}
				log.Info("products imported", zap.String("file", args[0]), zap.Int("added", added), zap.Int("skipped", parsed.Skipped))
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d products (%d rows skipped)\n", added, parsed.Skipped)
				return nil
			})
		},
	}
}

func newExportProductsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "export-products <file>",
		Short: "Write the whole catalog to a semicolon separated file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(v, func(a *app.App, log *zap.Logger) error {
				products, err := a.Products.GetAllProducts()
				if err != nil {
					return err
				}
				if err := writeFile(args[0], func(f *os.File) error { return csvio.WriteProducts(f, products) }); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d products to %s\n", len(products), args[0])
				return nil
			})
		},
	}
}

func newExportOrdersCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "export-orders <file>",
		Short: "Write the order summaries to a semicolon separated file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(v, func(a *app.App, log *zap.Logger) error {
				summaries, err := a.Orders.ListSummaries()
				if err != nil {
					return err
				}
				if err := writeFile(args[0], func(f *os.File) error { return csvio.WriteOrders(f, summaries) }); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d orders to %s\n", len(summaries), args[0])
				return nil
			})
		},
	}
}

func newResetPasswordCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <username-or-email> <new-password>",
		Short: "Set a new password for an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(v, func(a *app.App, log *zap.Logger) error {
				if err := a.Auth.ResetPassword(args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password for %s has been reset\n", args[0])
				return nil
			})
		},
	}
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
