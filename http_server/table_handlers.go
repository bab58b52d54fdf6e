package http_server

import (
	"net/http"

	"github.com/lakekit/lakekit/iceberg"
)

type (
	QueryReqBody struct {
		SQL string `validate:"required"`
	}

	QueryTableReqBody struct {
		Columns []string
		Where   string
		OrderBy string
		Limit   *int64
	}

	CreateSchemaReqBody struct {
		Name        string `validate:"required"`
		IfNotExists bool
	}

	CreateTableReqBody struct {
		Name          string           `validate:"required"`
		Columns       []iceberg.Column `validate:"required,min=1,dive"`
		PartitionedBy []string
		IfNotExists   bool
	}

	DeleteRowsReqBody struct {
		Where string
	}

	UpdateReqBody struct {
		Set   map[string]any `validate:"required"`
		Where string
	}
)

// QueryHandler runs raw SQL. The gateway has no auth, whoever can reach it
// can run anything the engine user can.
func (s *HTTPServer) QueryHandler(c *CustomContext) error {
	var reqBody QueryReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	rows, err := s.client.QuerySQL(c.Request().Context(), reqBody.SQL)
	if err != nil {
		return clientError(c, err, "error running query")
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *HTTPServer) ListSchemasHandler(c *CustomContext) error {
	schemas, err := s.client.ListSchemas(c.Request().Context())
	if err != nil {
		return clientError(c, err, "error listing schemas")
	}
	return c.JSON(http.StatusOK, schemas)
}

func (s *HTTPServer) CreateSchemaHandler(c *CustomContext) error {
	var reqBody CreateSchemaReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	if err := s.client.CreateSchema(c.Request().Context(), reqBody.Name, reqBody.IfNotExists); err != nil {
		return clientError(c, err, "error creating schema")
	}
	return c.NoContent(http.StatusCreated)
}

func (s *HTTPServer) DropSchemaHandler(c *CustomContext) error {
	ifExists := c.QueryParam("if_exists") == "1"
	if err := s.client.DropSchema(c.Request().Context(), c.Param("schema"), ifExists); err != nil {
		return clientError(c, err, "error dropping schema")
	}
	return c.NoContent(http.StatusOK)
}

func (s *HTTPServer) ListTablesHandler(c *CustomContext) error {
	tables, err := s.client.ListTables(c.Request().Context())
	if err != nil {
		return clientError(c, err, "error listing tables")
	}
	return c.JSON(http.StatusOK, tables)
}

func (s *HTTPServer) CreateTableHandler(c *CustomContext) error {
	var reqBody CreateTableReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	err := s.client.CreateTable(c.Request().Context(), reqBody.Name, reqBody.Columns, iceberg.CreateTableOptions{
		IfNotExists:   reqBody.IfNotExists,
		PartitionedBy: reqBody.PartitionedBy,
	})
	if err != nil {
		return clientError(c, err, "error creating table")
	}
	return c.NoContent(http.StatusCreated)
}

func (s *HTTPServer) DropTableHandler(c *CustomContext) error {
	ifExists := c.QueryParam("if_exists") == "1"
	if err := s.client.DropTable(c.Request().Context(), c.Param("table"), ifExists); err != nil {
		return clientError(c, err, "error dropping table")
	}
	return c.NoContent(http.StatusOK)
}

func (s *HTTPServer) DescribeTableHandler(c *CustomContext) error {
	descriptors, err := s.client.DescribeTable(c.Request().Context(), c.Param("table"))
	if err != nil {
		return clientError(c, err, "error describing table")
	}
	return c.JSON(http.StatusOK, descriptors)
}

func (s *HTTPServer) CountHandler(c *CustomContext) error {
	count, err := s.client.Count(c.Request().Context(), c.Param("table"), c.QueryParam("where"))
	if err != nil {
		return clientError(c, err, "error counting rows")
	}
	return c.JSON(http.StatusOK, map[string]int64{"count": count})
}

func (s *HTTPServer) QueryTableHandler(c *CustomContext) error {
	var reqBody QueryTableReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	rows, err := s.client.Query(c.Request().Context(), c.Param("table"), iceberg.QuerySpec{
		Columns: reqBody.Columns,
		Where:   reqBody.Where,
		OrderBy: reqBody.OrderBy,
		Limit:   reqBody.Limit,
	})
	if err != nil {
		return clientError(c, err, "error querying table")
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *HTTPServer) DeleteRowsHandler(c *CustomContext) error {
	var reqBody DeleteRowsReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	// An empty where deletes every row, that is the caller's call to make
	if err := s.client.Delete(c.Request().Context(), c.Param("table"), reqBody.Where); err != nil {
		return clientError(c, err, "error deleting rows")
	}
	return c.NoContent(http.StatusOK)
}

func (s *HTTPServer) UpdateHandler(c *CustomContext) error {
	var reqBody UpdateReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	if err := s.client.Update(c.Request().Context(), c.Param("table"), iceberg.Row(reqBody.Set), reqBody.Where); err != nil {
		return clientError(c, err, "error updating rows")
	}
	return c.NoContent(http.StatusOK)
}

func (s *HTTPServer) TruncateHandler(c *CustomContext) error {
	if err := s.client.Truncate(c.Request().Context(), c.Param("table")); err != nil {
		return clientError(c, err, "error truncating table")
	}
	return c.NoContent(http.StatusOK)
}
