package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/thomas/kram-terminal-go/internal/catalogio"
	"github.com/thomas/kram-terminal-go/internal/shop"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

// priceField accepts a JSON number or string.
type priceField string

func (p *priceField) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = priceField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("price must be a number or a string")
	}
	*p = priceField(n.String())
	return nil
}

type productRequest struct {
	Name         string     `json:"name"`
	Price        priceField `json:"price"`
	OldPrice     priceField `json:"old_price"`
	ImageURL     string     `json:"image_url"`
	FreeShipping bool       `json:"free_shipping"`
	Smart        bool       `json:"smart"`
}

type importFailure struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "products": s.catalog.Len()})
}

func (s *Server) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.Products())
}

func (s *Server) listFavorites(c *gin.Context) {
	favorites := s.catalog.Favorites()
	if favorites == nil {
		favorites = []shop.Product{}
	}
	c.JSON(http.StatusOK, favorites)
}

func (s *Server) getProduct(c *gin.Context) {
	p, ok := s.catalog.Product(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": shop.ErrProductNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	draft := shop.ProductDraft{
		Name:         req.Name,
		Price:        string(req.Price),
		OldPrice:     string(req.OldPrice),
		ImageURL:     req.ImageURL,
		FreeShipping: req.FreeShipping,
		Smart:        req.Smart,
	}
	p, err := s.catalog.AddProduct(&draft)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	s.logger.Info("product added", "id", p.ID, "name", p.Name, "source", "http")
	c.JSON(http.StatusCreated, p)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id := c.Param("id")
	if s.catalog.DeleteProduct(id) {
		s.logger.Info("product deleted", "id", id, "source", "http")
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) toggleFavorite(c *gin.Context) {
	p, ok := s.catalog.ToggleFavorite(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": shop.ErrProductNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) exportProducts(c *gin.Context) {
	var buf bytes.Buffer
	if err := catalogio.Export(&buf, s.catalog.Products()); err != nil {
		s.logger.Error("export failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=products.xlsx")
	c.Data(http.StatusOK, catalogio.ContentType, buf.Bytes())
}

func (s *Server) importProducts(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	defer file.Close()

	report, err := catalogio.Import(file, s.catalog)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	failures := make([]importFailure, 0, len(report.Failed))
	for _, f := range report.Failed {
		failures = append(failures, importFailure{Row: f.Line, Error: f.Err.Error()})
	}
	s.logger.Info("catalog imported", "file", header.Filename, "added", report.Added, "failed", len(failures))
	c.JSON(http.StatusOK, gin.H{"added": report.Added, "failed": failures})
}

// changes streams catalog change events over a websocket until the client
// goes away or the server closes.
func (s *Server) changes(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	sub := s.catalog.Subscribe(32)
	defer sub.Close()

	// The client only sends control frames; reading detects disconnects.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(v interface{}) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(v)
	}
	if err := send(shop.Change{Kind: shop.ChangeCatalogLoaded}); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			return
		case <-s.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case change, ok := <-sub.C():
			if !ok {
				return
			}
			if err := send(change); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shop.ErrMissingFields):
		return http.StatusBadRequest
	case errors.Is(err, shop.ErrInvalidPrice),
		errors.Is(err, shop.ErrInvalidOldPrice),
		errors.Is(err, shop.ErrInvalidImageURL):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
