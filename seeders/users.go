package seeders

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type userSeed struct {
	fio        string
	email      string
	department string
	isHead     bool
	canManage  bool
}

var userSeeds = []userSeed{
	{"Ахмедов Фаррух Рустамович", "f.ahmedov@consult.local", "Кардиология", true, false},
	{"Каримова Нигора Шариповна", "n.karimova@consult.local", "Кардиология", false, true},
	{"Рахимов Далер Искандарович", "d.rahimov@consult.local", "Кардиология", false, false},
	{"Шарипова Мавзуна Хайруллоевна", "m.sharipova@consult.local", "Неврология", true, false},
	{"Назаров Умед Джамшедович", "u.nazarov@consult.local", "Неврология", false, false},
	{"Исмоилов Бахтиёр Сайфуллоевич", "b.ismoilov@consult.local", "Хирургия", true, false},
	{"Гафурова Зарина Абдуллоевна", "z.gafurova@consult.local", "Хирургия", false, false},
	{"Солиев Манучехр Нусратуллоевич", "m.soliev@consult.local", "Терапия", true, false},
	{"Юсупова Фарангис Маликовна", "f.yusupova@consult.local", "Терапия", false, false},
}

const defaultSeedPassword = "ChangeMe123!"

func seedUsers(ctx context.Context, pool *pgxpool.Pool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(defaultSeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	for _, u := range userSeeds {
		_, err := pool.Exec(ctx, `
			INSERT INTO users (fio, email, password, department_id, is_head, can_manage_consults, is_active)
			SELECT $1, $2, $3, d.id, $4, $5, TRUE
			FROM departments d WHERE d.name = $6
			ON CONFLICT (email) DO NOTHING`,
			u.fio, u.email, string(hash), u.isHead, u.canManage, u.department,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// assignDepartmentHeads проставляет head_user_id после вставки пользователей:
// связь циклическая, одним проходом её не заполнить.
func assignDepartmentHeads(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		UPDATE departments d
		SET head_user_id = u.id
		FROM users u
		WHERE u.department_id = d.id AND u.is_head = TRUE AND d.head_user_id IS NULL`)
	return err
}
