package telemetry

import (
    "bytes"
    "context"
    "github.com/aleph-zero/canarystack/stack"
    "github.com/stretchr/testify/require"
    sdkmetric "go.opentelemetry.io/otel/sdk/metric"
    "go.opentelemetry.io/otel/sdk/metric/metricdata"
    "testing"
)

func TestObserver_Observe(t *testing.T) {
    reader := sdkmetric.NewManualReader()
    mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
    defer mp.Shutdown(context.Background())

    observer, err := NewObserver(mp)
    require.NoError(t, err)

    s := stack.New(2, 2, 0, stack.Additive, stack.WithObserver(observer), stack.WithDumpWriter(&bytes.Buffer{}))
    for i := 0; i < 5; i++ {
        s.Push(float64(i))
    }
    s.Destroy()

    var rm metricdata.ResourceMetrics
    require.NoError(t, reader.Collect(context.Background(), &rm))

    events := sumOf(t, rm, "stack.events")
    require.Equal(t, int64(3), events) // two grows and the destroy

    hist := findMetric(t, rm, "stack.capacity")
    data, ok := hist.Data.(metricdata.Histogram[int64])
    require.True(t, ok)
    require.Len(t, data.DataPoints, 1)
    require.Equal(t, uint64(2), data.DataPoints[0].Count)
    require.Equal(t, int64(4+6), data.DataPoints[0].Sum)
}

func TestObserver_Corruption(t *testing.T) {
    reader := sdkmetric.NewManualReader()
    mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
    defer mp.Shutdown(context.Background())

    observer, err := NewObserver(mp)
    require.NoError(t, err)

    var failure *stack.Error
    s := stack.New(0, 0, 2, stack.Multiplicative,
        stack.WithCheckLevel(stack.CheckNone),
        stack.WithObserver(observer),
        stack.WithDumpWriter(&bytes.Buffer{}),
        stack.WithFatalHandler(func(err *stack.Error) { failure = err }))
    s.Push(1)
    s.Destroy()
    s.Destroy()

    require.NotNil(t, failure)
    require.Equal(t, stack.Destroyed, failure.Kind)

    var rm metricdata.ResourceMetrics
    require.NoError(t, reader.Collect(context.Background(), &rm))
    require.Equal(t, int64(2), sumOf(t, rm, "stack.events"))
    for _, sm := range rm.ScopeMetrics {
        for _, m := range sm.Metrics {
            if m.Name == "stack.corruptions" {
                data := m.Data.(metricdata.Sum[int64])
                require.Empty(t, data.DataPoints, "misuse is not corruption")
            }
        }
    }
}

func findMetric(tb testing.TB, rm metricdata.ResourceMetrics, name string) metricdata.Metrics {
    tb.Helper()
    for _, sm := range rm.ScopeMetrics {
        for _, m := range sm.Metrics {
            if m.Name == name {
                return m
            }
        }
    }
    tb.Fatalf("metric %s not collected", name)
    return metricdata.Metrics{}
}

func sumOf(tb testing.TB, rm metricdata.ResourceMetrics, name string) int64 {
    tb.Helper()
    sum, ok := findMetric(tb, rm, name).Data.(metricdata.Sum[int64])
    require.True(tb, ok)
    var total int64
    for _, dp := range sum.DataPoints {
        total += dp.Value
    }
    return total
}
