package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"matchbook/internal/domain"
	"matchbook/internal/engine"
	"matchbook/internal/service"
)

// InstrumentHandler handles HTTP requests for per-instrument market
// data: top-of-book quote, aggregated depth, and trade history.
type InstrumentHandler struct {
	books      *service.BookService
	depthLimit int
}

// NewInstrumentHandler creates a new InstrumentHandler.
func NewInstrumentHandler(books *service.BookService, depthLimit int) *InstrumentHandler {
	return &InstrumentHandler{books: books, depthLimit: depthLimit}
}

// quoteResponse is the JSON response for the quote endpoint.
// Best prices are null when the corresponding side is empty.
type quoteResponse struct {
	Symbol  string           `json:"symbol"`
	BestBid *decimal.Decimal `json:"best_bid"`
	BestAsk *decimal.Decimal `json:"best_ask"`
}

// priceLevelResponse is one aggregated price level in the book response.
type priceLevelResponse struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
	Orders   int             `json:"orders"`
}

// bookResponse is the JSON response for the depth endpoint.
type bookResponse struct {
	Symbol string               `json:"symbol"`
	Bids   []priceLevelResponse `json:"bids"`
	Asks   []priceLevelResponse `json:"asks"`
}

// tradesResponse is the JSON response for the trade history endpoint.
type tradesResponse struct {
	Symbol string          `json:"symbol"`
	Trades []tradeResponse `json:"trades"`
}

// GetQuote handles GET /instruments/{symbol}/quote.
func (h *InstrumentHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if !h.books.KnownSymbol(symbol) {
		WriteError(w, http.StatusNotFound, "symbol_not_found", domain.ErrSymbolNotFound.Error())
		return
	}

	resp := quoteResponse{Symbol: symbol}
	if bid, ok := h.books.GetBestBid(symbol); ok {
		resp.BestBid = &bid
	}
	if ask, ok := h.books.GetBestAsk(symbol); ok {
		resp.BestAsk = &ask
	}

	WriteJSON(w, http.StatusOK, resp)
}

// GetBook handles GET /instruments/{symbol}/book.
func (h *InstrumentHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if !h.books.KnownSymbol(symbol) {
		WriteError(w, http.StatusNotFound, "symbol_not_found", domain.ErrSymbolNotFound.Error())
		return
	}

	bids, asks := h.books.GetDepth(symbol, h.depthLimit)
	WriteJSON(w, http.StatusOK, bookResponse{
		Symbol: symbol,
		Bids:   buildLevelResponses(bids),
		Asks:   buildLevelResponses(asks),
	})
}

// GetTrades handles GET /instruments/{symbol}/trades.
func (h *InstrumentHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if !h.books.KnownSymbol(symbol) {
		WriteError(w, http.StatusNotFound, "symbol_not_found", domain.ErrSymbolNotFound.Error())
		return
	}

	WriteJSON(w, http.StatusOK, tradesResponse{
		Symbol: symbol,
		Trades: buildTradeResponses(h.books.GetTrades(symbol)),
	})
}

// buildLevelResponses converts depth levels to their JSON form.
func buildLevelResponses(levels []engine.PriceLevel) []priceLevelResponse {
	result := make([]priceLevelResponse, len(levels))
	for i, l := range levels {
		result[i] = priceLevelResponse{
			Price:    l.Price,
			Quantity: l.Quantity,
			Orders:   l.Orders,
		}
	}
	return result
}
