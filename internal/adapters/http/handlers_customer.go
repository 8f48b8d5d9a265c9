package web

import (
	"net/http"
	"strings"

	"partyplanner/internal/adapters/http/api"
	customerStore "partyplanner/internal/adapters/storage/customer"
	"partyplanner/internal/application/listutil"
	"partyplanner/internal/domain/audit"
)

// handleSaveCustomer creates a customer, or overwrites one when customerId is set.
// POST /customer
func handleSaveCustomer(w http.ResponseWriter, r *http.Request) {
	var req api.Customer
	if !decodeOrReject(w, r, &req) {
		return
	}
	c := req.ToDomain()
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	status := http.StatusOK
	if c.ID == "" {
		c.ID = generateID()
		status = http.StatusCreated
	}
	if err := c.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := stores.CustomerStore.Save(r.Context(), c); err != nil {
		internalError(w, err)
		return
	}
	action := audit.ActionUpdate
	if status == http.StatusCreated {
		action = audit.ActionCreate
	}
	recordAudit(r, auditEntry(r, audit.CategoryCustomer, action).WithResource("customer", c.ID))
	writeJSON(w, status, api.FromCustomer(c))
}

// handleListCustomers lists customers by name.
// GET /customer?q=&page=&per_page=
func handleListCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := listutil.ParsePage(q)
	list, err := stores.CustomerStore.List(r.Context(), customerStore.ListFilter{
		Limit:  page.PerPage,
		Offset: page.Offset(),
		Search: listutil.ParseSearch(q),
	})
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]api.Customer, 0, len(list))
	for _, c := range list {
		out = append(out, api.FromCustomer(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetCustomer returns one customer.
// GET /customer/{customerId}
func handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := stores.CustomerStore.GetByID(r.Context(), r.PathValue("customerId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromCustomer(c))
}
