package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/homeride/backend/internal/domain/ride"
	"github.com/homeride/backend/pkg/database"
	"github.com/lib/pq"
)

const rideSelect = `
	SELECT r.id, r.origin_city, r.origin, r.destination_city, r.destination, r.travel_date_time,
	       r.status, r.ride_type, r.vehicle_model, r.vehicle_capacity, r.gender_preference,
	       r.price, r.price_per_km, r.stopover_prices, r.duration_minutes, r.distance_km,
	       r.direct_distance_km, r.route_polyline, r.driver_note, r.created_at,
	       e.id, e.name, e.email, e.gender, e.phone_number, e.profile_picture_url,
	       e.travel_credit, e.role, e.created_at
	FROM rides r
	JOIN employees e ON e.id = r.requester_id`

// RideRepository implements ride.Repository
type RideRepository struct {
	db *sql.DB
}

func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{db: db}
}

// Create inserts the ride, its stopovers and its segment prices in one transaction.
func (r *RideRepository) Create(ctx context.Context, rd *ride.Ride) error {
	if rd.ID == uuid.Nil {
		rd.ID = uuid.New()
	}
	if rd.StopoverPrices == nil {
		rd.StopoverPrices = []float64{}
	}

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const insertRide = `
			INSERT INTO rides (id, requester_id, origin_city, origin, destination_city, destination,
			                   travel_date_time, status, ride_type, vehicle_model, vehicle_capacity,
			                   gender_preference, price, price_per_km, stopover_prices, duration_minutes,
			                   distance_km, direct_distance_km, route_polyline, driver_note)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			RETURNING created_at`

		err := tx.QueryRowContext(ctx, insertRide,
			rd.ID, rd.Requester.ID, rd.OriginCity, rd.Origin, rd.DestinationCity, rd.Destination,
			rd.TravelDateTime, rd.Status, rd.Type, rd.VehicleModel, rd.VehicleCapacity,
			rd.GenderPreference, rd.Price, rd.PricePerKm, pq.Array(rd.StopoverPrices), rd.DurationMinutes,
			rd.DistanceKm, rd.DirectDistanceKm, rd.RoutePolyline, rd.DriverNote,
		).Scan(&rd.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert ride: %w", err)
		}

		const insertStop = `
			INSERT INTO ride_stopovers (id, ride_id, position, city, point, lat, lng)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`

		for i := range rd.Stopovers {
			s := &rd.Stopovers[i]
			if s.ID == uuid.Nil {
				s.ID = uuid.New()
			}
			if _, err := tx.ExecContext(ctx, insertStop, s.ID, rd.ID, i, s.City, s.Point, s.Lat, s.Lng); err != nil {
				return fmt.Errorf("insert stopover %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres.RideRepository.Create: %w", err)
	}
	return nil
}

func (r *RideRepository) GetByID(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	rides, err := r.query(ctx, rideSelect+` WHERE r.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("postgres.RideRepository.GetByID: %w", err)
	}
	if len(rides) == 0 {
		return nil, ride.ErrRideNotFound
	}
	return rides[0], nil
}

func (r *RideRepository) ListOfferedAfter(ctx context.Context, t time.Time) ([]*ride.Ride, error) {
	q := rideSelect + ` WHERE upper(r.ride_type) = $1 AND r.travel_date_time > $2 ORDER BY r.travel_date_time`
	rides, err := r.query(ctx, q, string(ride.TypeOffered), t)
	if err != nil {
		return nil, fmt.Errorf("postgres.RideRepository.ListOfferedAfter: %w", err)
	}
	return rides, nil
}

func (r *RideRepository) ListForEmployee(ctx context.Context, employeeID uuid.UUID) ([]*ride.Ride, error) {
	q := rideSelect + `
		WHERE r.requester_id = $1
		   OR EXISTS (SELECT 1 FROM ride_participants p WHERE p.ride_id = r.id AND p.participant_id = $1)
		ORDER BY r.travel_date_time DESC`
	rides, err := r.query(ctx, q, employeeID)
	if err != nil {
		return nil, fmt.Errorf("postgres.RideRepository.ListForEmployee: %w", err)
	}
	return rides, nil
}

// AddParticipant locks the ride row, re-counts booked seats and inserts the
// booking, so concurrent joins cannot overbook.
func (r *RideRepository) AddParticipant(ctx context.Context, p *ride.Participant) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var capacity int
		err := tx.QueryRowContext(ctx,
			`SELECT vehicle_capacity FROM rides WHERE id = $1 FOR UPDATE`, p.RideID,
		).Scan(&capacity)
		if errors.Is(err, sql.ErrNoRows) {
			return ride.ErrRideNotFound
		}
		if err != nil {
			return fmt.Errorf("lock ride: %w", err)
		}

		var booked int
		err = tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(GREATEST(number_of_seats, 1)), 0) FROM ride_participants WHERE ride_id = $1`, p.RideID,
		).Scan(&booked)
		if err != nil {
			return fmt.Errorf("count seats: %w", err)
		}
		if capacity-booked < p.Seats() {
			return ride.ErrNotEnoughSeats
		}

		const insert = `
			INSERT INTO ride_participants (id, ride_id, participant_id, pickup_point, dropoff_point, price, number_of_seats)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (ride_id, participant_id) DO NOTHING
			RETURNING joined_at`

		err = tx.QueryRowContext(ctx, insert,
			p.ID, p.RideID, p.Employee.ID, p.PickupPoint, p.DropoffPoint, p.Price, p.Seats(),
		).Scan(&p.JoinedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ride.ErrAlreadyJoined
		}
		if err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres.RideRepository.AddParticipant: %w", err)
	}
	return nil
}

func (r *RideRepository) RemoveParticipant(ctx context.Context, rideID, participantID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM ride_participants WHERE ride_id = $1 AND id = $2`, rideID, participantID)
	if err != nil {
		return fmt.Errorf("postgres.RideRepository.RemoveParticipant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ride.ErrParticipantNotFound
	}
	return nil
}

func (r *RideRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rides WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres.RideRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ride.ErrRideNotFound
	}
	return nil
}

func (r *RideRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rides`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres.RideRepository.Count: %w", err)
	}
	return n, nil
}

// CountForEmployee counts rides the employee requested plus the rides they
// joined as a participant.
func (r *RideRepository) CountForEmployee(ctx context.Context, employeeID uuid.UUID) (int, error) {
	const q = `
		SELECT (SELECT COUNT(*) FROM rides WHERE requester_id = $1)
		     + (SELECT COUNT(*) FROM ride_participants WHERE participant_id = $1)`
	var n int
	if err := r.db.QueryRowContext(ctx, q, employeeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres.RideRepository.CountForEmployee: %w", err)
	}
	return n, nil
}

// query loads rides and then hydrates stopovers and participants with one
// query each.
func (r *RideRepository) query(ctx context.Context, q string, args ...any) ([]*ride.Ride, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*ride.Ride
	byID := make(map[uuid.UUID]*ride.Ride)
	for rows.Next() {
		rd, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rides = append(rides, rd)
		byID[rd.ID] = rd
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(rides) == 0 {
		return rides, nil
	}

	ids := make([]string, 0, len(rides))
	for _, rd := range rides {
		ids = append(ids, rd.ID.String())
	}

	if err := r.loadStopovers(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := r.loadParticipants(ctx, ids, byID); err != nil {
		return nil, err
	}
	return rides, nil
}

func (r *RideRepository) loadStopovers(ctx context.Context, ids []string, byID map[uuid.UUID]*ride.Ride) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ride_id, city, point, lat, lng
		FROM ride_stopovers
		WHERE ride_id = ANY($1::uuid[])
		ORDER BY ride_id, position`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load stopovers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s        ride.Stopover
			rideID   uuid.UUID
			lat, lng sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &rideID, &s.City, &s.Point, &lat, &lng); err != nil {
			return fmt.Errorf("scan stopover: %w", err)
		}
		if lat.Valid {
			s.Lat = &lat.Float64
		}
		if lng.Valid {
			s.Lng = &lng.Float64
		}
		if rd, ok := byID[rideID]; ok {
			rd.Stopovers = append(rd.Stopovers, s)
		}
	}
	return rows.Err()
}

func (r *RideRepository) loadParticipants(ctx context.Context, ids []string, byID map[uuid.UUID]*ride.Ride) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.ride_id, p.pickup_point, p.dropoff_point, p.price, p.number_of_seats, p.joined_at,
		       e.id, e.name, e.email, e.gender, e.phone_number, e.profile_picture_url,
		       e.travel_credit, e.role, e.created_at
		FROM ride_participants p
		JOIN employees e ON e.id = p.participant_id
		WHERE p.ride_id = ANY($1::uuid[])
		ORDER BY p.joined_at`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p ride.Participant
		e := &p.Employee
		if err := rows.Scan(&p.ID, &p.RideID, &p.PickupPoint, &p.DropoffPoint, &p.Price, &p.NumberOfSeats, &p.JoinedAt,
			&e.ID, &e.Name, &e.Email, &e.Gender, &e.PhoneNumber, &e.ProfilePictureURL,
			&e.TravelCredit, &e.Role, &e.CreatedAt); err != nil {
			return fmt.Errorf("scan participant: %w", err)
		}
		if rd, ok := byID[p.RideID]; ok {
			rd.Participants = append(rd.Participants, p)
		}
	}
	return rows.Err()
}

func scanRide(row rowScanner) (*ride.Ride, error) {
	var rd ride.Ride
	e := &rd.Requester
	err := row.Scan(
		&rd.ID, &rd.OriginCity, &rd.Origin, &rd.DestinationCity, &rd.Destination, &rd.TravelDateTime,
		&rd.Status, &rd.Type, &rd.VehicleModel, &rd.VehicleCapacity, &rd.GenderPreference,
		&rd.Price, &rd.PricePerKm, pq.Array(&rd.StopoverPrices), &rd.DurationMinutes, &rd.DistanceKm,
		&rd.DirectDistanceKm, &rd.RoutePolyline, &rd.DriverNote, &rd.CreatedAt,
		&e.ID, &e.Name, &e.Email, &e.Gender, &e.PhoneNumber, &e.ProfilePictureURL,
		&e.TravelCredit, &e.Role, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rd, nil
}
