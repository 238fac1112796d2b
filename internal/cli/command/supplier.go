package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/pkg/scriptapi"
)

// SupplierCommand returns the supplier subcommand group.
func SupplierCommand() *cli.Command {
	return &cli.Command{
		Name:    "supplier",
		Aliases: []string{"sup"},
		Usage:   "Manage suppliers",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List suppliers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Match name, contact or email",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status (active, inactive)",
					},
				},
				Action: supplierList,
			},
			{
				Name:      "get",
				Usage:     "Get supplier details",
				ArgsUsage: "SUPPLIER_ID",
				Action:    supplierGet,
			},
			{
				Name:   "add",
				Usage:  "Add a supplier",
				Flags:  supplierFlags(true),
				Action: supplierAdd,
			},
			{
				Name:      "update",
				Usage:     "Update the given fields of a supplier",
				ArgsUsage: "SUPPLIER_ID",
				Flags:     supplierFlags(false),
				Action:    supplierUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a supplier",
				ArgsUsage: "SUPPLIER_ID",
				Action:    supplierDelete,
			},
		},
	}
}

// OrderCommand returns the order subcommand group.
func OrderCommand() *cli.Command {
	return &cli.Command{
		Name:  "order",
		Usage: "Browse purchase orders",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List orders",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "supplier",
						Usage: "Filter by supplier ID",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status (pending, shipped, delivered, cancelled)",
					},
				},
				Action: orderList,
			},
		},
	}
}

func supplierFlags(add bool) []cli.Flag {
	status := &cli.StringFlag{
		Name:  "status",
		Usage: "Status (active, inactive)",
	}
	if add {
		status.Value = domain.SupplierActive
	}
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "name",
			Aliases:  []string{"n"},
			Usage:    "Supplier name",
			Required: add,
		},
		&cli.StringFlag{Name: "contact", Usage: "Contact person"},
		&cli.StringFlag{Name: "email", Usage: "Contact email"},
		&cli.StringFlag{Name: "phone", Usage: "Contact phone"},
		status,
	}
}

func supplierList(c *cli.Context) error {
	rt := runtimeFrom(c)
	client, err := rt.Client(c.Context)
	if err != nil {
		return err
	}

	var suppliers []domain.Supplier
	err = rt.spin("Loading suppliers...", func() error {
		var err error
		suppliers, err = client.ListSuppliers(c.Context, scriptapi.SupplierQuery{
			Search: c.String("search"),
			Status: c.String("status"),
		})
		return err
	})
	if err != nil {
		return err
	}
	return rt.render(suppliers)
}

func supplierGet(c *cli.Context) error {
	rt := runtimeFrom(c)
	id, err := requireID(c)
	if err != nil {
		return err
	}
	client, err := rt.Client(c.Context)
	if err != nil {
		return err
	}

	s, err := client.GetSupplier(c.Context, id)
	if err != nil {
		return err
	}
	return rt.render(s)
}

func supplierAdd(c *cli.Context) error {
	rt := runtimeFrom(c)
	client, err := rt.Client(c.Context)
	if err != nil {
		return err
	}

	s := &domain.Supplier{}
	applySupplierFlags(c, s)
	created, err := client.AddSupplier(c.Context, s)
	if err != nil {
		return err
	}
	return rt.render(created)
}

func supplierUpdate(c *cli.Context) error {
	rt := runtimeFrom(c)
	id, err := requireID(c)
	if err != nil {
		return err
	}
	client, err := rt.Client(c.Context)
	if err != nil {
		return err
	}

	s, err := client.GetSupplier(c.Context, id)
	if err != nil {
		return err
	}
	if !applySupplierFlags(c, s) {
		return domain.ErrInvalidArgument.WithDetails("nothing to update")
	}
	updated, err := client.UpdateSupplier(c.Context, s)
	if err != nil {
		return err
	}
	return rt.render(updated)
}

func supplierDelete(c *cli.Context) error {
	rt := runtimeFrom(c)
	id, err := requireID(c)
	if err != nil {
		return err
	}
	client, err := rt.Client(c.Context)
	if err != nil {
		return err
	}

	if err := client.DeleteSupplier(c.Context, id); err != nil {
		return err
	}
	fmt.Fprintf(rt.stdout, "Supplier %s deleted\n", id)
	return nil
}

func orderList(c *cli.Context) error {
	rt := runtimeFrom(c)
	client, err := rt.Client(c.Context)
	if err != nil {
		return err
	}

	var orders []domain.Order
	err = rt.spin("Loading orders...", func() error {
		var err error
		orders, err = client.GetOrders(c.Context, scriptapi.OrderQuery{
			SupplierID: c.String("supplier"),
			Status:     c.String("status"),
		})
		return err
	})
	if err != nil {
		return err
	}
	return rt.render(orders)
}

func requireID(c *cli.Context) (string, error) {
	id := c.Args().First()
	if id == "" {
		return "", domain.ErrInvalidArgument.WithDetails("SUPPLIER_ID is required")
	}
	return id, nil
}

// applySupplierFlags copies the set (or defaulted) flags onto s and
// reports whether anything changed.
func applySupplierFlags(c *cli.Context, s *domain.Supplier) bool {
	changed := false
	set := func(name string, dst *string) {
		if c.IsSet(name) || (c.String(name) != "" && *dst == "") {
			*dst = c.String(name)
			changed = true
		}
	}
	set("name", &s.Name)
	set("contact", &s.Contact)
	set("email", &s.Email)
	set("phone", &s.Phone)
	set("status", &s.Status)
	return changed
}
