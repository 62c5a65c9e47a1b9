package testutil

// Sample JSON responses for API testing

// SampleStationsResponse mixes numeric and string encodings the way the
// backend does. Station 4 has an unparseable latitude.
const SampleStationsResponse = `[
	{
		"id": 1,
		"nombre": "Biblioteca Central",
		"latitud": "19.3325",
		"longitud": "-99.1870",
		"bicicletas": 8,
		"capacidad_max": 12,
		"estado": "Operational"
	},
	{
		"id": "2",
		"nombre": "Facultad de Ingeniería",
		"latitud": "19.3310",
		"longitud": "-99.1840",
		"bicicletas": 0,
		"capacidad_max": 10,
		"estado": "maintenance"
	},
	{
		"id": 3,
		"nombre": "Estadio Olímpico",
		"latitud": "19.3320",
		"longitud": "-99.1920",
		"bicicletas": 15,
		"capacidad_max": 10,
		"estado": "OFFLINE"
	},
	{
		"id": 4,
		"nombre": "Rectoría",
		"latitud": "no-data",
		"longitud": "-99.1880",
		"bicicletas": 4,
		"capacidad_max": 8,
		"estado": "Operational"
	}
]`

// SampleDuplicateStationsResponse repeats id 5; the second record must win
const SampleDuplicateStationsResponse = `[
	{"id": "5", "nombre": "Old Name", "latitud": "19.1", "longitud": "-99.1", "bicicletas": 1, "capacidad_max": 4, "estado": "Operational"},
	{"id": "6", "nombre": "Posgrado", "latitud": "19.2", "longitud": "-99.2", "bicicletas": 2, "capacidad_max": 4, "estado": "Operational"},
	{"id": 5, "nombre": "New Name", "latitud": "19.3", "longitud": "-99.3", "bicicletas": 3, "capacidad_max": 4, "estado": "Maintenance"}
]`

// SampleBikesResponse is a minimal valid bikes response
const SampleBikesResponse = `[
	{
		"id": "B-001",
		"estacion": "Biblioteca Central",
		"velocidad_promedio": 14.2,
		"distancia_recorrida": "120.5",
		"estado": "Available"
	},
	{
		"id": "B-002",
		"estacion": null,
		"velocidad_promedio": "0",
		"distancia_recorrida": null,
		"estado": "InUse"
	},
	{
		"id": "B-003",
		"estacion": "Estadio Olímpico",
		"velocidad_promedio": 11.0,
		"distancia_recorrida": 80,
		"estado": "maintenance"
	},
	{
		"id": "B-004",
		"estacion": "Estadio Olímpico",
		"velocidad_promedio": 9.5,
		"distancia_recorrida": 42,
		"estado": "Lost"
	}
]`

// SampleUsageResponse is a 24 hour series anchored at 14:00
const SampleUsageResponse = `[
	{"hour": "14:00", "count": 12},
	{"hour": "15:00", "count": 18},
	{"hour": "16:00", "count": 25},
	{"hour": "17:00", "count": 31},
	{"hour": "18:00", "count": 22},
	{"hour": "19:00", "count": 15},
	{"hour": "20:00", "count": 9},
	{"hour": "21:00", "count": 4},
	{"hour": "22:00", "count": 2},
	{"hour": "23:00", "count": 1},
	{"hour": "00:00", "count": 0},
	{"hour": "01:00", "count": 0},
	{"hour": "02:00", "count": 0},
	{"hour": "03:00", "count": 0},
	{"hour": "04:00", "count": 0},
	{"hour": "05:00", "count": 1},
	{"hour": "06:00", "count": 3},
	{"hour": "07:00", "count": 14},
	{"hour": "08:00", "count": 27},
	{"hour": "09:00", "count": 20},
	{"hour": "10:00", "count": 16},
	{"hour": "11:00", "count": 13},
	{"hour": "12:00", "count": 19},
	{"hour": "13:00", "count": "x"}
]`

// SampleEmptyResponse is an empty JSON array
const SampleEmptyResponse = `[]`

// SampleErrorResponse is a sample error response
const SampleErrorResponse = `{
	"error": "estación no encontrada"
}`
