package seeders

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type consultSeed struct {
	requesterEmail string
	targetDept     string
	urgency        string
	question       string
	dueInMins      int
}

var consultSeeds = []consultSeed{
	{"u.nazarov@consult.local", "Кардиология", "URGENT",
		"Пациент 58 лет, аритмия после инсульта, просим консультацию кардиолога.", 180},
	{"f.yusupova@consult.local", "Хирургия", "EMERGENCY",
		"Подозрение на острый аппендицит, срочно нужен осмотр хирурга.", 30},
	{"d.rahimov@consult.local", "Неврология", "ROUTINE",
		"Хронические головные боли у пациента на плановом лечении.", 1440},
}

func seedConsults(ctx context.Context, pool *pgxpool.Pool) error {
	for _, c := range consultSeeds {
		_, err := pool.Exec(ctx, `
			INSERT INTO consults (requester_id, requesting_department_id, target_department_id, status, urgency, question, due_at)
			SELECT u.id, u.department_id, d.id, 'SUBMITTED', $1, $2, NOW() + make_interval(mins => $3)
			FROM users u, departments d
			WHERE u.email = $4 AND d.name = $5
			  AND NOT EXISTS (SELECT 1 FROM consults WHERE question = $2)`,
			c.urgency, c.question, c.dueInMins, c.requesterEmail, c.targetDept,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
