package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/farm-advisor/internal/weather"
)

var bengaluru = weather.Location{Lat: 12.9716, Lon: 77.5946}

func TestOpenWeatherFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "key", q.Get("appid"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "12.9716", q.Get("lat"))
		assert.Equal(t, "77.5946", q.Get("lon"))
		fmt.Fprint(w, `{"dt":1780000000,"name":"Bengaluru","main":{"temp":24.5,"feels_like":25.0,"humidity":78},"wind":{"speed":3.2},"weather":[{"main":"Rain","description":"light rain"}]}`)
	}))
	defer server.Close()

	p := NewOpenWeatherProvider("key", Options{Client: server.Client(), BaseURL: server.URL})
	r, err := p.Fetch(context.Background(), bengaluru)
	require.NoError(t, err)

	assert.Equal(t, "openweathermap", r.ProviderName)
	assert.Equal(t, "Bengaluru", r.PlaceName)
	assert.Equal(t, "light rain", r.Description)
	assert.Equal(t, 24.5, r.TemperatureC)
	assert.Equal(t, 25.0, r.FeelsLikeC)
	assert.Equal(t, 78.0, r.HumidityPct)
	assert.Equal(t, 3.2, r.WindSpeedMS)
}

func TestOpenWeatherMissingKey(t *testing.T) {
	p := NewOpenWeatherProvider("", Options{Client: http.DefaultClient})
	_, err := p.Fetch(context.Background(), bengaluru)
	assert.ErrorIs(t, err, errNotConfigured)
}

func TestOpenWeatherClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	p := NewOpenWeatherProvider("bad", Options{Client: server.Client(), BaseURL: server.URL, MaxRetries: 3})
	_, err := p.Fetch(context.Background(), bengaluru)
	assert.ErrorIs(t, err, errUnexpected)
	assert.Equal(t, int32(1), calls.Load())
}

func TestServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"current":{"time":"2026-06-01T09:15","temperature_2m":31.2,"apparent_temperature":34.0,"relative_humidity_2m":55,"wind_speed_10m":2.5,"weather_code":0}}`)
	}))
	defer server.Close()

	p := NewOpenMeteoProvider(Options{Client: server.Client(), BaseURL: server.URL, MaxRetries: 1})
	r, err := p.Fetch(context.Background(), bengaluru)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "clear sky", r.Description)
	assert.Equal(t, 31.2, r.TemperatureC)
	assert.Empty(t, r.PlaceName)
}

func TestWeatherAPIFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12.9716,77.5946", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"location":{"name":"Bangalore","region":"Karnataka","localtime_epoch":1780000000},"current":{"temp_c":23,"feelslike_c":24,"humidity":80,"wind_kph":18,"condition":{"text":"Patchy rain nearby"}}}`)
	}))
	defer server.Close()

	p := NewWeatherAPIProvider("key", Options{Client: server.Client(), BaseURL: server.URL})
	r, err := p.Fetch(context.Background(), bengaluru)
	require.NoError(t, err)
	assert.Equal(t, "Bangalore", r.PlaceName)
	assert.Equal(t, "Patchy rain nearby", r.Description)
	assert.InDelta(t, 5.0, r.WindSpeedMS, 0.001)
}

func TestMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>`)
	}))
	defer server.Close()

	p := NewOpenMeteoProvider(Options{Client: server.Client(), BaseURL: server.URL})
	_, err := p.Fetch(context.Background(), bengaluru)
	assert.Error(t, err)
}

func TestNoHTTPClient(t *testing.T) {
	p := NewOpenMeteoProvider(Options{})
	_, err := p.Fetch(context.Background(), bengaluru)
	assert.True(t, errors.Is(err, errNoHTTPClient))
}

func TestDescribeWMOCode(t *testing.T) {
	assert.Equal(t, "clear sky", describeWMOCode(0))
	assert.Equal(t, "partly cloudy", describeWMOCode(2))
	assert.Equal(t, "rain", describeWMOCode(63))
	assert.Equal(t, "thunderstorm", describeWMOCode(95))
	assert.Equal(t, "", describeWMOCode(50))
}
