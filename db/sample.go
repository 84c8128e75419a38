// sample.go installs the demo EMPLOYEE/DEPARTMENT tables so the macro
// examples in the documentation run against real data.
package db

import "context"

var sampleStatements = []string{
	`DROP TABLE IF EXISTS employee`,
	`DROP TABLE IF EXISTS department`,
	`CREATE TABLE department (
		deptno   char(3)     NOT NULL PRIMARY KEY,
		deptname varchar(36) NOT NULL,
		mgrno    char(6),
		location varchar(16)
	)`,
	`CREATE TABLE employee (
		empno    char(6)     NOT NULL PRIMARY KEY,
		firstnme varchar(12) NOT NULL,
		midinit  char(1),
		lastname varchar(15) NOT NULL,
		workdept char(3)     REFERENCES department(deptno),
		job      char(8),
		salary   decimal(9,2),
		bonus    decimal(9,2),
		comm     decimal(9,2)
	)`,
	`INSERT INTO department VALUES
		('A00', 'SPIFFY COMPUTER SERVICE DIV.', '000010', 'NEW YORK'),
		('B01', 'PLANNING',                     '000020', 'NEW YORK'),
		('C01', 'INFORMATION CENTER',           '000030', 'NEW YORK'),
		('D11', 'MANUFACTURING SYSTEMS',        '000060', 'CHICAGO'),
		('E11', 'OPERATIONS',                   '000090', 'SAN JOSE')`,
	`INSERT INTO employee VALUES
		('000010', 'CHRISTINE', 'I', 'HAAS',      'A00', 'PRES    ', 152750.00, 1000.00, 4220.00),
		('000020', 'MICHAEL',   'L', 'THOMPSON',  'B01', 'MANAGER ',  94250.00,  800.00, 3300.00),
		('000030', 'SALLY',     'A', 'KWAN',      'C01', 'MANAGER ',  98250.00,  800.00, 3060.00),
		('000060', 'IRVING',    'F', 'STERN',     'D11', 'MANAGER ',  72250.00,  500.00, 2580.00),
		('000090', 'EILEEN',    'W', 'HENDERSON', 'E11', 'MANAGER ',  89750.00,  600.00, 2380.00),
		('000100', 'THEODORE',  'Q', 'SPENSER',   'E11', 'MANAGER ',  86150.00,  500.00, 2092.00),
		('000120', 'SEAN',      '',  'O''CONNELL','A00', 'CLERK   ',  49250.00,  600.00, 2340.00),
		('000130', 'DELORES',   'M', 'QUINTANA',  'C01', 'ANALYST ',  73800.00,  500.00, 1904.00)`,
}

// Bootstrap creates and fills the sample tables, replacing any previous
// copies.
func (d *DB) Bootstrap(ctx context.Context) error {
	for _, stmt := range sampleStatements {
		if _, err := d.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
