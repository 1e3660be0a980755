package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const mockIncome = `{
	"symbol": "ACME",
	"annualReports": [
		{
			"fiscalDateEnding": "2024-12-31",
			"totalRevenue": "1000000",
			"netIncome": "120000",
			"depreciationAndAmortization": "30000"
		},
		{
			"fiscalDateEnding": "2023-12-31",
			"totalRevenue": "900000",
			"netIncome": "100000",
			"depreciationAndAmortization": "None"
		}
	]
}`

const mockBalance = `{
	"symbol": "ACME",
	"annualReports": [
		{
			"fiscalDateEnding": "2024-12-31",
			"totalCurrentAssets": "500000",
			"totalCurrentLiabilities": "200000",
			"totalLiabilities": "300000",
			"shortTermDebt": "20000",
			"longTermDebt": "80000",
			"totalShareholderEquity": "400000",
			"intangibleAssets": "10000",
			"goodwill": "5000",
			"commonStockSharesOutstanding": "100000"
		},
		{
			"fiscalDateEnding": "2023-12-31",
			"totalCurrentAssets": "450000",
			"totalCurrentLiabilities": "180000",
			"totalLiabilities": "280000",
			"shortTermDebt": "None",
			"longTermDebt": "90000",
			"totalShareholderEquity": "350000",
			"intangibleAssets": "None",
			"goodwill": "None",
			"commonStockSharesOutstanding": "100000"
		}
	]
}`

const mockCashFlow = `{
	"symbol": "ACME",
	"annualReports": [
		{
			"fiscalDateEnding": "2024-12-31",
			"operatingCashflow": "150000",
			"capitalExpenditures": "40000",
			"depreciationDepletionAndAmortization": "32000",
			"dividendPayout": "10000"
		},
		{
			"fiscalDateEnding": "2023-12-31",
			"operatingCashflow": "130000",
			"capitalExpenditures": "35000",
			"depreciationDepletionAndAmortization": "None",
			"dividendPayout": "None"
		}
	]
}`

const mockOverview = `{
	"Symbol": "ACME",
	"Name": "Acme Industries",
	"Exchange": "NYSE",
	"Sector": "Industrials",
	"Industry": "Machinery",
	"MarketCapitalization": "2500000000",
	"CIK": "1234567"
}`

const mockQuote = `{
	"Global Quote": {
		"01. symbol": "ACME",
		"05. price": "42.50",
		"07. latest trading day": "2025-06-27"
	}
}`

// statementHandler serves the three statement endpoints plus overview/quote.
func statementHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("function") {
		case funcIncomeStatement:
			w.Write([]byte(mockIncome))
		case funcBalanceSheet:
			w.Write([]byte(mockBalance))
		case funcCashFlow:
			w.Write([]byte(mockCashFlow))
		case funcOverview:
			w.Write([]byte(mockOverview))
		case funcGlobalQuote:
			w.Write([]byte(mockQuote))
		default:
			t.Errorf("unexpected function %q", r.URL.Query().Get("function"))
			w.Write([]byte(`{}`))
		}
	}
}

func newTestClient(baseURL string, keys ...string) *Client {
	if len(keys) == 0 {
		keys = []string{"test-key"}
	}
	// high rate so tests never block on the limiter
	return NewClient(NewKeyRing(keys...), WithBaseURL(baseURL), WithRatePerMinute(60000))
}

func TestFetchStatements_MergesEndpoints(t *testing.T) {
	srv := httptest.NewServer(statementHandler(t))
	defer srv.Close()

	client := newTestClient(srv.URL)
	stmt, err := client.FetchStatements(context.Background(), "ACME", 7)
	if err != nil {
		t.Fatalf("FetchStatements failed: %v", err)
	}

	if stmt.Ticker != "ACME" {
		t.Errorf("ticker = %q, want ACME", stmt.Ticker)
	}
	if len(stmt.Periods) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(stmt.Periods))
	}

	// oldest first
	if stmt.Periods[0].FiscalDate != "2023-12-31" {
		t.Errorf("first period = %s, want 2023-12-31", stmt.Periods[0].FiscalDate)
	}
	if stmt.Periods[1].FiscalDate != "2024-12-31" {
		t.Errorf("last period = %s, want 2024-12-31", stmt.Periods[1].FiscalDate)
	}

	latest := stmt.Periods[1]
	if latest.NetIncome != 120000 {
		t.Errorf("net income = %.0f, want 120000", latest.NetIncome)
	}
	if latest.Revenue != 1000000 {
		t.Errorf("revenue = %.0f, want 1000000", latest.Revenue)
	}
	if latest.CurrentAssets != 500000 {
		t.Errorf("current assets = %.0f, want 500000", latest.CurrentAssets)
	}
	if latest.TotalLiabilities != 300000 {
		t.Errorf("total liabilities = %.0f, want 300000", latest.TotalLiabilities)
	}
	if latest.TotalDebt != 100000 {
		t.Errorf("total debt = %.0f, want 100000 (short + long)", latest.TotalDebt)
	}
	if latest.ShareholderEquity != 400000 {
		t.Errorf("equity = %.0f, want 400000", latest.ShareholderEquity)
	}
	if latest.SharesOutstanding != 100000 {
		t.Errorf("shares = %.0f, want 100000", latest.SharesOutstanding)
	}
	if latest.OperatingCashFlow != 150000 {
		t.Errorf("operating cash flow = %.0f, want 150000", latest.OperatingCashFlow)
	}
	if latest.CapEx != 40000 {
		t.Errorf("capex = %.0f, want 40000", latest.CapEx)
	}
	// cash flow D&A wins over the income statement figure
	if latest.Depreciation != 32000 {
		t.Errorf("depreciation = %.0f, want 32000", latest.Depreciation)
	}

	// 2023 cash flow D&A is "None", so the income statement fallback applies;
	// that is also "None" here, leaving zero
	prior := stmt.Periods[0]
	if prior.Depreciation != 0 {
		t.Errorf("prior depreciation = %.0f, want 0", prior.Depreciation)
	}
	if prior.TotalDebt != 90000 {
		t.Errorf("prior total debt = %.0f, want 90000", prior.TotalDebt)
	}
}

func TestFetchStatements_TrimsToYears(t *testing.T) {
	srv := httptest.NewServer(statementHandler(t))
	defer srv.Close()

	client := newTestClient(srv.URL)
	stmt, err := client.FetchStatements(context.Background(), "ACME", 1)
	if err != nil {
		t.Fatalf("FetchStatements failed: %v", err)
	}

	if len(stmt.Periods) != 1 {
		t.Fatalf("expected 1 period, got %d", len(stmt.Periods))
	}
	if stmt.Periods[0].FiscalDate != "2024-12-31" {
		t.Errorf("kept period = %s, want the most recent", stmt.Periods[0].FiscalDate)
	}
}

func TestFetchProfile(t *testing.T) {
	srv := httptest.NewServer(statementHandler(t))
	defer srv.Close()

	client := newTestClient(srv.URL)
	profile, err := client.FetchProfile(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("FetchProfile failed: %v", err)
	}

	if profile.Name != "Acme Industries" {
		t.Errorf("name = %q, want Acme Industries", profile.Name)
	}
	if profile.Exchange != "NYSE" {
		t.Errorf("exchange = %q, want NYSE", profile.Exchange)
	}
	if profile.MarketCap != 2500000000 {
		t.Errorf("market cap = %.0f, want 2500000000", profile.MarketCap)
	}
	if profile.CIK != "1234567" {
		t.Errorf("cik = %q, want 1234567", profile.CIK)
	}
}

func TestFetchProfile_UnknownTicker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	if _, err := client.FetchProfile(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected error for empty overview")
	}
}

func TestFetchQuote(t *testing.T) {
	srv := httptest.NewServer(statementHandler(t))
	defer srv.Close()

	client := newTestClient(srv.URL)
	quote, err := client.FetchQuote(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}

	if quote.Price != 42.50 {
		t.Errorf("price = %.2f, want 42.50", quote.Price)
	}
	if quote.AsOf != "2025-06-27" {
		t.Errorf("as of = %q, want 2025-06-27", quote.AsOf)
	}
}

func TestFetchQuote_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Global Quote": {}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	if _, err := client.FetchQuote(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected error for empty quote")
	}
}

func TestKeyRotationOnThrottle(t *testing.T) {
	var requests int32
	var secondKey atomic.Value

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		n := atomic.AddInt32(&requests, 1)
		if n == 1 {
			w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 25 requests per day."}`))
			return
		}
		secondKey.Store(r.URL.Query().Get("apikey"))
		w.Write([]byte(mockOverview))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "key-one", "key-two")
	profile, err := client.FetchProfile(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("FetchProfile should succeed after rotation: %v", err)
	}

	if profile.Name != "Acme Industries" {
		t.Errorf("name = %q, want Acme Industries", profile.Name)
	}
	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
	if got, _ := secondKey.Load().(string); got != "key-two" {
		t.Errorf("retry used key %q, want key-two", got)
	}
}

func TestAllKeysExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Information": "API rate limit exceeded"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "key-one", "key-two")
	_, err := client.FetchProfile(context.Background(), "ACME")
	if err == nil {
		t.Fatal("expected error when every key is throttled")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", apiErr.StatusCode)
	}
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.FetchQuote(context.Background(), "ACME")
	if err == nil {
		t.Fatal("expected error on HTTP 500")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", apiErr.StatusCode)
	}
}

func TestListExchangeTickers(t *testing.T) {
	csvBody := "symbol,name,exchange,assetType,ipoDate,delistingDate,status\n" +
		"AAA,Alpha Corp,NYSE,Stock,1999-11-18,null,Active\n" +
		"BBB,Beta ETF,NYSE,ETF,2010-01-01,null,Active\n" +
		"CCC,Gamma Inc,NASDAQ,Stock,2015-06-01,null,Active\n" +
		"DDD.W,Delta Warrants,NYSE,Stock,2020-01-01,null,Active\n" +
		"EEE,Epsilon Ltd,NYSE,Stock,2001-03-09,null,Active\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("function"); got != funcListingStatus {
			t.Errorf("function = %q, want %s", got, funcListingStatus)
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(csvBody))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	tickers, err := client.ListExchangeTickers(context.Background(), "NYSE")
	if err != nil {
		t.Fatalf("ListExchangeTickers failed: %v", err)
	}

	want := []string{"AAA", "EEE"}
	if len(tickers) != len(want) {
		t.Fatalf("tickers = %v, want %v", tickers, want)
	}
	for i, w := range want {
		if tickers[i] != w {
			t.Errorf("tickers[%d] = %q, want %q", i, tickers[i], w)
		}
	}
}

func TestKeyRing(t *testing.T) {
	ring := NewKeyRing("a", " b ", "", "c")
	if ring.Size() != 3 {
		t.Fatalf("size = %d, want 3 (blanks dropped)", ring.Size())
	}
	if ring.Current() != "a" {
		t.Errorf("current = %q, want a", ring.Current())
	}
	if ring.Rotate() != "b" {
		t.Errorf("rotate = %q, want b", ring.Current())
	}
	ring.Rotate()
	if ring.Rotate() != "a" {
		t.Errorf("rotation should wrap back to a, got %q", ring.Current())
	}

	empty := NewKeyRing()
	if empty.Current() != "" || empty.Rotate() != "" {
		t.Error("empty ring should return empty strings")
	}
}

func TestAnnualReport_NoneValues(t *testing.T) {
	tests := []struct {
		name   string
		json   string
		expect float64
	}{
		{"none", `{"fiscalDateEnding":"2024-12-31","netIncome":"None"}`, 0},
		{"empty", `{"fiscalDateEnding":"2024-12-31","netIncome":""}`, 0},
		{"dash", `{"fiscalDateEnding":"2024-12-31","netIncome":"-"}`, 0},
		{"string_number", `{"fiscalDateEnding":"2024-12-31","netIncome":"123.45"}`, 123.45},
		{"plain_number", `{"fiscalDateEnding":"2024-12-31","netIncome":678}`, 678},
		{"negative", `{"fiscalDateEnding":"2024-12-31","netIncome":"-50000"}`, -50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var report annualReport
			if err := json.Unmarshal([]byte(tt.json), &report); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if float64(report.NetIncome) != tt.expect {
				t.Errorf("netIncome = %f, want %f", float64(report.NetIncome), tt.expect)
			}
		})
	}
}
