// Package diff сравнивает два определения таблицы и строит упорядоченный
// список структурных альтераций (add/drop/retype/rename колонок) плюс
// опциональное переименование самой таблицы.
//
// Результат описывает одну минимальную ALTER-транзакцию вместо
// drop+recreate, что сохраняет данные при узких правках схемы.
package diff

import (
	"github.com/schemafx/connectors/pkg/connector"
)

// Op — вид альтерации
type Op string

const (
	OpAddColumn    Op = "add_column"
	OpDropColumn   Op = "drop_column"
	OpRetypeColumn Op = "retype_column"
	OpRenameColumn Op = "rename_column"
)

// Alteration — одно атомарное структурное изменение таблицы.
//
//	OpAddColumn:    Name + Type
//	OpDropColumn:   Name
//	OpRetypeColumn: Name + Type (новый тип)
//	OpRenameColumn: Name (старое имя) + NewName
type Alteration struct {
	Op      Op
	Name    string
	NewName string
	Type    connector.ColumnType
}

// Result — результат сравнения двух определений таблицы.
// RenameTable=true когда физические имена (ConnectionPath[0]) различаются;
// переименование таблицы применяется отдельным запросом после всех
// колоночных альтераций.
type Result struct {
	Alterations []Alteration
	RenameTable bool
	OldName     string
	NewName     string
}

// Empty сообщает что изменений нет
func (r Result) Empty() bool {
	return len(r.Alterations) == 0 && !r.RenameTable
}

// Tables сравнивает old и new и возвращает упорядоченный список альтераций.
//
// Алгоритм:
//  1. Колонки old отсутствующие в new по имени → DropColumn;
//     присутствующие в обеих но с разным типом → RetypeColumn
//     (retype имеет приоритет: такая колонка никогда не участвует
//     в сопоставлении переименований).
//  2. Колонки new отсутствующие в old → AddColumn.
//  3. Эвристика переименования: для первой оставшейся dropped-колонки
//     ищется первая added-колонка того же абстрактного типа; пара
//     Drop+Add заменяется одним RenameColumn и обе колонки выбывают
//     из дальнейшего сопоставления. Сопоставление жадное и зависит
//     от порядка определения, без учета похожести имен.
func Tables(old, new connector.TableDefinition) (Result, error) {
	oldName, err := old.PhysicalName()
	if err != nil {
		return Result{}, err
	}
	newName, err := new.PhysicalName()
	if err != nil {
		return Result{}, err
	}

	oldByName := columnsByName(old.Columns)
	newByName := columnsByName(new.Columns)

	var ops []Alteration

	// Индексы drop-альтераций в ops и сами dropped-колонки,
	// в порядке определения old
	var dropIdx []int
	var dropped []connector.Column

	for _, col := range old.Columns {
		newCol, ok := newByName[col.Name]
		if !ok {
			dropIdx = append(dropIdx, len(ops))
			dropped = append(dropped, col)
			ops = append(ops, Alteration{Op: OpDropColumn, Name: col.Name})
			continue
		}
		if newCol.Type != col.Type {
			ops = append(ops, Alteration{Op: OpRetypeColumn, Name: col.Name, Type: newCol.Type})
		}
	}

	var addIdx []int
	var added []connector.Column

	for _, col := range new.Columns {
		if _, ok := oldByName[col.Name]; !ok {
			addIdx = append(addIdx, len(ops))
			added = append(added, col)
			ops = append(ops, Alteration{Op: OpAddColumn, Name: col.Name, Type: col.Type})
		}
	}

	// Сопоставление переименований: первая dropped к первой added
	// совпадающего типа. Rename занимает позицию своей drop-альтерации,
	// парная add-альтерация удаляется из списка.
	removed := make(map[int]bool)
	for d := 0; d < len(dropped); d++ {
		for a := 0; a < len(added); a++ {
			if added[a].Name == "" {
				continue // уже сопоставлена
			}
			if added[a].Type != dropped[d].Type {
				continue
			}
			ops[dropIdx[d]] = Alteration{
				Op:      OpRenameColumn,
				Name:    dropped[d].Name,
				NewName: added[a].Name,
			}
			removed[addIdx[a]] = true
			added[a].Name = ""
			break
		}
	}

	if len(removed) > 0 {
		compact := ops[:0]
		for i, op := range ops {
			if !removed[i] {
				compact = append(compact, op)
			}
		}
		ops = compact
	}

	return Result{
		Alterations: ops,
		RenameTable: oldName != newName,
		OldName:     oldName,
		NewName:     newName,
	}, nil
}

func columnsByName(cols []connector.Column) map[string]connector.Column {
	m := make(map[string]connector.Column, len(cols))
	for _, col := range cols {
		m[col.Name] = col
	}
	return m
}
