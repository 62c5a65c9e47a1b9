package api

const (
	// BaseURL is the default base URL of the fleet backend
	BaseURL = "http://localhost:8080/api"

	// EndpointStations returns every station with its docked count
	// Record: id, nombre, latitud, longitud, bicicletas, capacidad_max, estado
	EndpointStations = "/stations"

	// EndpointBikes returns every bike with its current station
	// Record: id, estacion, velocidad_promedio, distancia_recorrida, estado
	EndpointBikes = "/bikes"

	// EndpointUsage24h returns the number of bikes in use per hour over the
	// last 24 hours
	// Record: hour, count
	EndpointUsage24h = "/overview/bikes-used-24h"
)

// Endpoints lists every endpoint the console reads
var Endpoints = []string{
	EndpointStations,
	EndpointBikes,
	EndpointUsage24h,
}
