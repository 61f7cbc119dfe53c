package seeders

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type departmentSeed struct {
	name              string
	slaEmergencyMins  int
	slaUrgentMins     int
	slaRoutineMins    int
	routingPolicy     string
	autoRouteOnCreate bool
}

var departmentSeeds = []departmentSeed{
	{"Кардиология", 30, 180, 1440, "HIERARCHY", false},
	{"Неврология", 45, 240, 1440, "HIERARCHY", false},
	{"Хирургия", 30, 120, 720, "ROUND_ROBIN", true},
	{"Терапия", 60, 240, 2880, "ROUND_ROBIN", false},
}

func seedDepartments(ctx context.Context, pool *pgxpool.Pool) error {
	for _, d := range departmentSeeds {
		_, err := pool.Exec(ctx, `
			INSERT INTO departments (name, sla_emergency_mins, sla_urgent_mins, sla_routine_mins, routing_policy, auto_route_on_create)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (name) DO NOTHING`,
			d.name, d.slaEmergencyMins, d.slaUrgentMins, d.slaRoutineMins, d.routingPolicy, d.autoRouteOnCreate,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
