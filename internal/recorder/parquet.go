package recorder

import (
	"bytes"
	"io"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/eduardosasso/bullish/internal/model"
)

type parquetMemFile struct {
	buffer *bytes.Buffer
}

func newParquetMemFile() *parquetMemFile {
	return &parquetMemFile{buffer: &bytes.Buffer{}}
}

func (m *parquetMemFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *parquetMemFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *parquetMemFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *parquetMemFile) Read([]byte) (int, error)                  { return 0, io.EOF }
func (m *parquetMemFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *parquetMemFile) Close() error                              { return nil }
func (m *parquetMemFile) Bytes() []byte                             { return m.buffer.Bytes() }

// parquetRow is the flat export schema, one row per distinct ticker.
type parquetRow struct {
	ScanTime   int64   `parquet:"name=scan_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Ticker     string  `parquet:"name=ticker, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name       string  `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Sector     string  `parquet:"name=sector, type=BYTE_ARRAY, convertedtype=UTF8"`
	Price      float64 `parquet:"name=price, type=DOUBLE"`
	ATH        float64 `parquet:"name=ath, type=DOUBLE"`
	MarketCap  float64 `parquet:"name=market_cap, type=DOUBLE"`
	PctFromATH float64 `parquet:"name=pct_from_ath, type=DOUBLE"`
	Change1d   float64 `parquet:"name=change_1d, type=DOUBLE"`
	Streak     int32   `parquet:"name=streak, type=INT32"`
	RSI        float64 `parquet:"name=rsi, type=DOUBLE"`
	ROC30d     float64 `parquet:"name=roc_30d, type=DOUBLE"`
	RSVsBench  float64 `parquet:"name=rs_vs_qqq, type=DOUBLE"`
	VolSurge   float64 `parquet:"name=vol_surge, type=DOUBLE"`
	PctVs50DMA float64 `parquet:"name=pct_vs_50dma, type=DOUBLE"`
	Is52wHigh  bool    `parquet:"name=is_52w_high, type=BOOLEAN"`
	Signal     string  `parquet:"name=signal, type=BYTE_ARRAY, convertedtype=UTF8"`
	Assessment string  `parquet:"name=ai_assessment, type=BYTE_ARRAY, convertedtype=UTF8"`
	FairValue  float64 `parquet:"name=fair_value, type=DOUBLE"`
	Upside     float64 `parquet:"name=upside, type=DOUBLE"`
	Rating     string  `parquet:"name=rating, type=BYTE_ARRAY, convertedtype=UTF8"`
	FVVsATH    float64 `parquet:"name=fv_vs_ath, type=DOUBLE"`
}

// EncodeParquet writes the same rows as EncodeCSV as snappy-compressed parquet.
func EncodeParquet(o *model.ScanOutcome) ([]byte, error) {
	mf := newParquetMemFile()
	pw, err := writer.NewParquetWriter(mf, new(parquetRow), 1)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	scanTime := o.Timestamp.UTC().UnixMilli()
	for _, s := range o.Unique(model.Buckets...) {
		r := toRecord(s)
		row := parquetRow{
			ScanTime:   scanTime,
			Ticker:     r.Ticker,
			Name:       r.Name,
			Sector:     r.Sector,
			Price:      r.Price,
			ATH:        r.ATH,
			MarketCap:  r.MarketCap,
			PctFromATH: r.PctFromATH,
			Change1d:   r.Change1d,
			Streak:     int32(r.Streak),
			RSI:        r.RSI,
			ROC30d:     r.ROC30d,
			RSVsBench:  r.RSVsBench,
			VolSurge:   r.VolSurge,
			PctVs50DMA: r.PctVs50DMA,
			Is52wHigh:  r.Is52wHigh,
			Signal:     r.Signal,
			Assessment: r.Assessment,
			FairValue:  r.FairValue,
			Upside:     r.Upside,
			Rating:     r.Rating,
			FVVsATH:    r.FVVsATH,
		}
		if err := pw.Write(row); err != nil {
			return nil, err
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	return mf.Bytes(), nil
}
