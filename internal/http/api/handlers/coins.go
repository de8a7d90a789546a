package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/coinalerts/server/internal/db"
	"github.com/coinalerts/server/internal/models"
)

// searchResultLimit caps how many coins a single search returns.
const searchResultLimit = 10

// CoinHandler serves coin catalog search.
type CoinHandler struct {
	db *gorm.DB
}

// NewCoinHandler constructs a CoinHandler.
func NewCoinHandler(conn *gorm.DB) *CoinHandler {
	return &CoinHandler{db: conn}
}

// searchRequest defines the request body for coin search.
type searchRequest struct {
	Query string `json:"query"`
}

// Search matches the query against coin ids, names, and symbols, ranking
// exact matches above prefix matches above substring matches.
func (h *CoinHandler) Search(c *gin.Context) {
	var body searchRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid JSON body"})
		return
	}

	query := strings.ToLower(strings.TrimSpace(body.Query))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Provide a search query"})
		return
	}

	conn := h.db.WithContext(c.Request.Context())
	pattern := db.NormalizeLikePattern(conn, "%"+query+"%")
	var rows []models.Coin
	errFind := conn.
		Where(
			db.CaseInsensitiveLikeExpr(conn, "id")+" OR "+
				db.CaseInsensitiveLikeExpr(conn, "name")+" OR "+
				db.CaseInsensitiveLikeExpr(conn, "symbol"),
			pattern, pattern, pattern,
		).
		Limit(200).
		Find(&rows).Error
	if errFind != nil {
		log.WithError(errFind).Error("coin search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch coin data"})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No coins found"})
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := relevance(rows[i], query), relevance(rows[j], query)
		if ri != rj {
			return ri > rj
		}
		return rows[i].Name < rows[j].Name
	})
	if len(rows) > searchResultLimit {
		rows = rows[:searchResultLimit]
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{"id": row.ID, "symbol": row.Symbol, "name": row.Name})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "length": len(out), "data": out})
}

// relevance scores a coin against the query: exact 3, prefix 2, substring 1.
func relevance(coin models.Coin, query string) int {
	fields := []string{
		strings.ToLower(coin.ID),
		strings.ToLower(coin.Name),
		strings.ToLower(coin.Symbol),
	}
	best := 1
	for _, field := range fields {
		switch {
		case field == query:
			return 3
		case strings.HasPrefix(field, query):
			best = 2
		}
	}
	return best
}
