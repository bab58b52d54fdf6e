package http_server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danthegoodman1/gojsonutils"
	"github.com/lakekit/lakekit/iceberg"
	"github.com/lakekit/lakekit/utils"
)

type (
	InsertReqBody struct {
		// Line-delimited JSON (NDJSON)
		RowsString *string
		// Array of JSON
		Rows []map[string]any
		// Rows per INSERT statement, default 100
		BatchSize *int
		// Flatten nested objects into dotted column names
		Flatten bool
	}

	InsertStats struct {
		NumRows   int64
		NumChunks int64
		TimeMS    int64
	}
)

var ErrNotFlatMap = errors.New("not a flat map")

func (s *HTTPServer) InsertHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*60)
	defer cancel()

	table := c.Param("table")

	var reqBody InsertReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	defer c.Request().Body.Close()

	var rows []iceberg.Row

	if reqBody.RowsString != nil {
		ndJSONScanner := bufio.NewScanner(strings.NewReader(*reqBody.RowsString))
		for ndJSONScanner.Scan() {
			line := strings.TrimSpace(ndJSONScanner.Text())
			if line == "" {
				continue
			}
			var raw any
			err := json.Unmarshal([]byte(line), &raw)
			if err != nil {
				return c.String(http.StatusBadRequest, fmt.Sprintf("error in json.Unmarshal: %s", err))
			}
			jsonMap, ok := raw.(map[string]any)
			if !ok {
				return c.String(http.StatusBadRequest, "line was not a JSON object")
			}
			row, err := s.prepareRow(jsonMap, reqBody.Flatten)
			if err != nil {
				return c.InternalError(err, "error preparing NDJSON row")
			}
			rows = append(rows, row)
		}
	} else {
		for _, jsonMap := range reqBody.Rows {
			row, err := s.prepareRow(jsonMap, reqBody.Flatten)
			if err != nil {
				return c.InternalError(err, "error preparing row")
			}
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return c.String(http.StatusBadRequest, "no rows found")
	}

	// Keep the raw payload around for replay when archiving is on
	if s.archive != nil {
		key := fmt.Sprintf("inserts/%s/%s.json", table, utils.GenKSortedID(""))
		if err := s.archive.WriteJSON(ctx, key, rows); err != nil {
			return c.InternalError(err, "error archiving insert payload")
		}
	}

	start := time.Now()
	// Absent means default, the client itself rejects non-positive sizes
	batchSize := utils.Deref(reqBody.BatchSize, iceberg.DefaultBatchSize)
	numRows, err := s.client.InsertBatch(ctx, table, rows, batchSize)
	if err != nil {
		var chunkErr *iceberg.ChunkError
		if errors.As(err, &chunkErr) && chunkErr.Committed > 0 {
			// Partial commit, the caller needs to know how far it got
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"error":           err.Error(),
				"failedChunk":     chunkErr.Chunk,
				"committedChunks": chunkErr.Committed,
				"committedRows":   numRows,
			})
		}
		return clientError(c, err, "error inserting rows")
	}
	end := time.Since(start)

	numChunks := int64(0)
	if numRows > 0 {
		numChunks = int64((numRows + batchSize - 1) / batchSize)
	}

	return c.JSON(http.StatusAccepted, InsertStats{
		NumRows:   int64(numRows),
		NumChunks: numChunks,
		TimeMS:    end.Milliseconds(),
	})
}

func (s *HTTPServer) prepareRow(jsonMap map[string]any, flatten bool) (iceberg.Row, error) {
	if !flatten {
		return iceberg.Row(jsonMap), nil
	}
	flat, err := gojsonutils.Flatten(jsonMap, nil)
	if err != nil {
		return nil, fmt.Errorf("error in gojsonutils.Flatten: %w", err)
	}
	flatMap, ok := flat.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("got a non flat map %+v: %w", flat, ErrNotFlatMap)
	}
	return iceberg.Row(flatMap), nil
}
