package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	apperrors "vnstock-advisor/internal/errors"
	"vnstock-advisor/internal/logging"
	"vnstock-advisor/internal/models"
)

// DefaultTCBSBaseURL is the public TCBS API host.
const DefaultTCBSBaseURL = "https://apipubaws.tcbs.com.vn"

// TCBSClient implements Provider using the public TCBS API.
type TCBSClient struct {
	client *resty.Client
	logger zerolog.Logger
}

// NewTCBSClient creates a TCBS client.
func NewTCBSClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *TCBSClient {
	if baseURL == "" {
		baseURL = DefaultTCBSBaseURL
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", "application/json")

	return &TCBSClient{
		client: client,
		logger: logger.With().Str("source", string(models.SourceTCBS)).Logger(),
	}
}

func (c *TCBSClient) Source() models.Source {
	return models.SourceTCBS
}

var tcbsResolutions = map[models.Interval]string{
	models.IntervalDay:   "D",
	models.IntervalWeek:  "W",
	models.IntervalMonth: "M",
}

// get issues a GET and decodes the JSON body with numbers preserved.
func (c *TCBSClient) get(ctx context.Context, dataType, symbol, path string, params map[string]string, out interface{}) error {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	logging.LogAPICall(c.logger, http.MethodGet, path, time.Since(start), err)

	if err != nil {
		return apperrors.NewDataError(dataType, symbol, "request failed", fmt.Errorf("%w: %v", apperrors.ErrDataUnavailable, err))
	}
	if resp.StatusCode() != http.StatusOK {
		return apperrors.NewDataError(dataType, symbol, fmt.Sprintf("API error %d", resp.StatusCode()), apperrors.ErrDataUnavailable)
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return apperrors.NewDataError(dataType, symbol, "failed to parse response", fmt.Errorf("%w: %v", apperrors.ErrDataUnavailable, err))
	}
	return nil
}

// History fetches OHLCV bars.
func (c *TCBSClient) History(ctx context.Context, req HistoryRequest) (models.PriceSeries, error) {
	req, err := validateRequest(req)
	if err != nil {
		return models.PriceSeries{}, err
	}
	resolution, ok := tcbsResolutions[req.Interval]
	if !ok {
		return models.PriceSeries{}, apperrors.NewValidationError("interval", req.Interval, "unsupported interval")
	}

	var body struct {
		Ticker string `json:"ticker"`
		Data   []struct {
			Open        json.Number `json:"open"`
			High        json.Number `json:"high"`
			Low         json.Number `json:"low"`
			Close       json.Number `json:"close"`
			Volume      json.Number `json:"volume"`
			TradingDate string      `json:"tradingDate"`
		} `json:"data"`
	}
	err = c.get(ctx, "history", req.Symbol, "/stock-insight/v2/stock/bars-long-term", map[string]string{
		"ticker":     req.Symbol,
		"type":       "stock",
		"resolution": resolution,
		"from":       fmt.Sprintf("%d", req.From.Unix()),
		"to":         fmt.Sprintf("%d", req.To.Unix()),
	}, &body)
	if err != nil {
		return models.PriceSeries{}, err
	}

	raw := make([]models.PriceBar, 0, len(body.Data))
	for _, d := range body.Data {
		date, err := parseTCBSDate(d.TradingDate)
		if err != nil {
			c.logger.Debug().Str("date", d.TradingDate).Msg("skipping bar with unparseable date")
			continue
		}
		if date.Before(tradingDay(req.From)) {
			continue
		}
		raw = append(raw, models.PriceBar{
			Date:   date,
			Open:   toFloat(d.Open),
			High:   toFloat(d.High),
			Low:    toFloat(d.Low),
			Close:  toFloat(d.Close),
			Volume: int64(toFloat(d.Volume)),
		})
	}
	return buildSeries(models.SourceTCBS, req, raw)
}

func parseTCBSDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return tradingDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// overviewFields is the display order and Vietnamese label of overview attributes.
var overviewFields = []struct {
	key   string
	label string
}{
	{"ticker", "Mã"},
	{"shortName", "Tên viết tắt"},
	{"exchange", "Sàn"},
	{"industry", "Ngành"},
	{"industryEn", "Ngành (EN)"},
	{"companyType", "Loại hình"},
	{"establishedYear", "Năm thành lập"},
	{"noEmployees", "Số nhân viên"},
	{"noShareholders", "Số cổ đông"},
	{"foreignPercent", "Tỷ lệ sở hữu nước ngoài"},
	{"outstandingShare", "Cổ phiếu lưu hành (triệu)"},
	{"issueShare", "Cổ phiếu phát hành (triệu)"},
	{"stockRating", "Xếp hạng"},
	{"deltaInWeek", "Biến động 1 tuần"},
	{"deltaInMonth", "Biến động 1 tháng"},
	{"deltaInYear", "Biến động 1 năm"},
	{"website", "Website"},
}

// CompanyOverview fetches the company attribute table.
func (c *TCBSClient) CompanyOverview(ctx context.Context, symbol string) (*models.CompanyOverview, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidSymbol, err)
	}

	var body map[string]interface{}
	if err := c.get(ctx, "company", symbol, fmt.Sprintf("/tcanalysis/v1/ticker/%s/overview", symbol), nil, &body); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, apperrors.NewDataError("company", symbol, "empty overview", apperrors.ErrDataUnavailable)
	}

	overview := &models.CompanyOverview{Symbol: symbol}
	for _, f := range overviewFields {
		v, ok := body[f.key]
		if !ok || v == nil {
			continue
		}
		overview.Attributes = append(overview.Attributes, models.Attribute{Key: f.key, Label: f.label, Value: toText(v)})
	}
	return overview, nil
}

var tcbsStatementPaths = map[models.StatementKind]string{
	models.StatementBalanceSheet: "balancesheet",
	models.StatementIncome:       "incomestatement",
	models.StatementRatio:        "financialratio",
}

// statementLabels are the Vietnamese labels of common statement fields.
var statementLabels = map[string]string{
	"revenue":           "Doanh thu",
	"yearRevenueGrowth": "Tăng trưởng doanh thu (năm)",
	"costOfGoodSold":    "Giá vốn hàng bán",
	"grossProfit":       "Lợi nhuận gộp",
	"operationProfit":   "Lợi nhuận hoạt động",
	"preTaxProfit":      "Lợi nhuận trước thuế",
	"postTaxProfit":     "Lợi nhuận sau thuế",
	"shareHolderIncome": "Lợi nhuận cổ đông",
	"ebitda":            "EBITDA",
	"shortAsset":        "Tài sản ngắn hạn",
	"cash":              "Tiền",
	"shortInvest":       "Đầu tư ngắn hạn",
	"shortReceivable":   "Phải thu ngắn hạn",
	"inventory":         "Hàng tồn kho",
	"longAsset":         "Tài sản dài hạn",
	"fixedAsset":        "Tài sản cố định",
	"asset":             "Tổng tài sản",
	"debt":              "Nợ phải trả",
	"shortDebt":         "Nợ ngắn hạn",
	"longDebt":          "Nợ dài hạn",
	"equity":            "Vốn chủ sở hữu",
	"capital":           "Vốn điều lệ",
	"priceToEarning":    "P/E",
	"priceToBook":       "P/B",
	"roe":               "ROE",
	"roa":               "ROA",
	"earningPerShare":   "EPS",
	"bookValuePerShare": "BVPS",
	"grossProfitMargin": "Biên lợi nhuận gộp",
	"postTaxMargin":     "Biên lợi nhuận ròng",
	"debtOnEquity":      "Nợ/Vốn chủ sở hữu",
	"currentPayment":    "Thanh toán hiện hành",
	"quickPayment":      "Thanh toán nhanh",
	"dividend":          "Cổ tức",
}

// Statement fetches a financial statement. period is "quarter" or "year";
// lang selects "vi" or "en" column labels.
func (c *TCBSClient) Statement(ctx context.Context, symbol string, kind models.StatementKind, period, lang string) (*models.FinancialStatement, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidSymbol, err)
	}
	path, ok := tcbsStatementPaths[kind]
	if !ok {
		return nil, apperrors.NewValidationError("kind", kind, "unknown statement")
	}
	yearly := "0"
	if period == "year" {
		yearly = "1"
	} else {
		period = "quarter"
	}
	if lang != "en" {
		lang = "vi"
	}

	var body []map[string]interface{}
	err = c.get(ctx, string(kind), symbol, fmt.Sprintf("/tcanalysis/v1/finance/%s/%s", symbol, path), map[string]string{
		"yearly": yearly,
		"isAll":  "true",
	}, &body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, apperrors.NewDataError(string(kind), symbol, "empty statement", apperrors.ErrDataUnavailable)
	}

	return buildStatement(symbol, kind, period, lang, body), nil
}

// buildStatement coerces statement rows. Columns are every numeric key of any
// row, in name order.
func buildStatement(symbol string, kind models.StatementKind, period, lang string, body []map[string]interface{}) *models.FinancialStatement {
	st := &models.FinancialStatement{Symbol: symbol, Kind: kind, Period: period, Lang: lang}
	seen := make(map[string]bool)

	for _, raw := range body {
		row := models.FinancialRow{
			Year:    toInt(raw["year"]),
			Quarter: toInt(raw["quarter"]),
			Values:  make(map[string]decimal.Decimal),
		}
		for k, v := range raw {
			switch k {
			case "ticker", "year", "quarter":
				continue
			}
			d, ok := toDecimal(v)
			if !ok {
				continue
			}
			row.Values[k] = d
			seen[k] = true
		}
		st.Rows = append(st.Rows, row)
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		label := k
		if lang == "vi" {
			if l, ok := statementLabels[k]; ok {
				label = l
			}
		}
		st.Columns = append(st.Columns, models.Column{Key: k, Label: label})
	}

	sort.SliceStable(st.Rows, func(i, j int) bool {
		if st.Rows[i].Year != st.Rows[j].Year {
			return st.Rows[i].Year > st.Rows[j].Year
		}
		return st.Rows[i].Quarter > st.Rows[j].Quarter
	})
	return st
}
