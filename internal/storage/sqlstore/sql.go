package sqlstore

// Queries use "?" placeholders, which both MySQL and SQLite accept.

const insertTripSQL = `
INSERT INTO trips (id, name, start_date, end_date, fuel_consumption, fuel_price)
VALUES (?, ?, ?, ?, ?, ?)
`

const insertDestinationSQL = `
INSERT INTO destinations
  (id, trip_id, name, lat, lng, category, start_date, end_date,
   transport_mode, transport_duration, transport_distance,
   return_destination_id, actual_cost, budget)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getTripSQL = `
SELECT id, name, start_date, end_date, fuel_consumption, fuel_price
FROM trips
WHERE id = ?
`

const listDestinationsSQL = `
SELECT id, trip_id, name, lat, lng, category, start_date, end_date,
       transport_mode, transport_duration, transport_distance,
       return_destination_id, actual_cost, budget
FROM destinations
WHERE trip_id = ?
ORDER BY id
`

const listOrderSQL = `
SELECT destination_id
FROM trip_destinations
WHERE trip_id = ?
ORDER BY position
`

const tripExistsSQL = `SELECT COUNT(*) FROM trips WHERE id = ?`

const destinationExistsSQL = `SELECT COUNT(*) FROM destinations WHERE id = ?`

const deleteOrderSQL = `DELETE FROM trip_destinations WHERE trip_id = ?`

const insertOrderSQL = `
INSERT INTO trip_destinations (trip_id, destination_id, position)
VALUES (?, ?, ?)
`

const updateDatesSQL = `
UPDATE destinations
SET start_date = ?, end_date = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const listTripIDsSQL = `SELECT id FROM trips ORDER BY id`
