package database

import (
	"fmt"
	"log"

	"qpgen_backend/internal/config"
	"qpgen_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Material{},
		&model.Section{},
		&model.GenerationJob{},
		&model.Question{},
		&model.QuestionFeedback{},
		&model.PaperPattern{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 初始课程，空库时给协调员一个可直接上传材料的落点
	var count int64
	db.Model(&model.Course{}).Count(&count)
	if count == 0 {
		defaultCourses := []model.Course{
			{Code: "CS3401", Name: "Database Management Systems", Program: "B.Tech CSE", Semester: 5, Units: 5},
			{Code: "CS3501", Name: "Operating Systems", Program: "B.Tech CSE", Semester: 5, Units: 5},
			{Code: "CS3601", Name: "Computer Networks", Program: "B.Tech CSE", Semester: 6, Units: 5},
		}
		for _, c := range defaultCourses {
			db.Create(&c)
		}
	}

	return db, nil
}
