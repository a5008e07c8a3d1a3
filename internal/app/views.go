package app

import (
	"github.com/dshills/reactor/internal/event"
	"github.com/dshills/reactor/internal/navigation"
	"github.com/dshills/reactor/internal/region"
)

// Region names the built-in views are placed into.
const (
	MainRegion    = "main"
	SidebarRegion = "sidebar"
)

// Home is the landing view of the main region.
type Home struct{}

// Customer shows one customer. Navigation passes "customerId" and "name".
type Customer struct{}

// Orders lists the orders of a customer.
type Orders struct{}

// Activity is one entry of the sidebar activity list.
type Activity struct{}

// Bridge names of the application events.
const (
	CustomerSelectedEvent = "sales.customerSelected"
	NavigatedEvent        = "app.navigated"
	StatusEvent           = "app.status"
)

// CustomerSelected is raised when a customer is picked, on either side of
// the bridge.
type CustomerSelected struct {
	CustomerID int
	Name       string
}

// Navigated is published after every successful navigation.
type Navigated struct {
	Locator string
	Region  string
	View    string
}

// StatusMessage replaces the status line.
type StatusMessage struct {
	Text string
}

// bindEvents binds the application events to their bridge names.
func bindEvents(types *event.Types) {
	event.MustBind[CustomerSelected](types, CustomerSelectedEvent)
	event.MustBind[Navigated](types, NavigatedEvent)
	event.MustBind[StatusMessage](types, StatusEvent)
}

// registerViews makes the built-in views navigable and places Home into the
// main region as soon as it exists.
func registerViews(regions *region.Registry, router *navigation.Router) error {
	if err := navigation.Register[Home](router); err != nil {
		return err
	}
	if err := navigation.Register[Customer](router); err != nil {
		return err
	}
	if err := navigation.Register[Orders](router); err != nil {
		return err
	}
	if err := navigation.Register[Activity](router); err != nil {
		return err
	}
	region.RegisterView[Home](regions, MainRegion)
	return nil
}
