package repository

import (
	"time"

	"qpgen_backend/internal/model"

	"gorm.io/gorm"
)

type MaterialRepository struct {
	DB *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{DB: db}
}

func (r *MaterialRepository) Create(material *model.Material) error {
	return r.DB.Create(material).Error
}

func (r *MaterialRepository) FindByID(id uint) (*model.Material, error) {
	var material model.Material
	err := r.DB.First(&material, id).Error
	return &material, err
}

func (r *MaterialRepository) List(courseID uint, unit int, page, limit int) ([]model.Material, int64, error) {
	query := r.DB.Model(&model.Material{})
	if courseID > 0 {
		query = query.Where("course_id = ?", courseID)
	}
	if unit > 0 {
		query = query.Where("unit = ?", unit)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var materials []model.Material
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&materials).Error
	return materials, total, err
}

func (r *MaterialRepository) SectionsByMaterial(materialID uint) ([]model.Section, error) {
	var sections []model.Section
	err := r.DB.Where("material_id = ?", materialID).Order("ord asc").Find(&sections).Error
	return sections, err
}

// SaveParsedSections 持久化解析结果并标记材料已解析，两步在一个事务内完成。
// 标记先走条件更新，材料已被其它协程解析过时返回 false 且不写入任何章节。
func (r *MaterialRepository) SaveParsedSections(materialID uint, sections []model.Section) (bool, error) {
	stored := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Material{}).
			Where("id = ? AND parsed = ?", materialID, false).
			Updates(map[string]interface{}{
				"parsed":        true,
				"parsed_at":     time.Now(),
				"section_count": len(sections),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		for i := range sections {
			sections[i].MaterialID = materialID
		}
		if len(sections) > 0 {
			if err := tx.Create(&sections).Error; err != nil {
				return err
			}
		}
		stored = true
		return nil
	})
	return stored, err
}
