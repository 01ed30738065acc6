package main

import (
	"errors"
	"net/http"

	"github.com/farxc/ecommerce_medallion/internal/files"
	"github.com/farxc/ecommerce_medallion/internal/gold"
	"github.com/farxc/ecommerce_medallion/internal/response"
	"github.com/go-chi/chi/v5"
)

const defaultTableLimit = 100

// @Summary		Read a gold table
// @Description	returns the first rows of dim_customers, dim_products, fact_order_items or fact_orders
// @Tags			Gold
// @Produce		json
// @Param			table	path		string	true	"Gold table name"
// @Param			limit	query		int		false	"Maximum number of rows (default 100)"
// @Success		200		{object}	response.APIResponse[response.TableData]
// @Failure		400		{object}	response.ErrorResponse
// @Failure		404		{object}	response.ErrorResponse
// @Router			/gold/{table} [get]
func (app *application) handleGetGoldTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	if !gold.IsTable(name) {
		writeJSONError(w, http.StatusNotFound, "unknown gold table: "+name)
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"), defaultTableLimit)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	columns, rows, err := app.gold.ReadTable(name, limit)
	if err != nil {
		switch {
		case errors.Is(err, files.ErrNotFound):
			writeJSONError(w, http.StatusNotFound, "gold table not built yet: "+name)
		case errors.Is(err, gold.ErrUnknownTable):
			writeJSONError(w, http.StatusNotFound, err.Error())
		default:
			app.appLogger.Error("API-Gold", "Failed to read gold table: table=%s err=%v", name, err)
			writeJSONError(w, http.StatusInternalServerError, "failed to read gold table")
		}
		return
	}

	data := response.TableData{
		Table:   name,
		Columns: columns,
		Count:   len(rows),
		Rows:    rows,
	}
	writeJSON(w, http.StatusOK, response.APIResponse[response.TableData]{Success: true, Data: data})
}
